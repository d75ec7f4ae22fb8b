package nodename

var adjectives = []string{
	"able", "acid", "adorable", "aged", "agile", "alert", "amber", "ancient",
	"apt", "arctic", "ardent", "aromatic", "austere", "avid", "awake", "bashful",
	"big", "bitter", "black", "bland", "blue", "blushing", "bold", "bouncy",
	"brave", "breezy", "brief", "bright", "brisk", "broad", "bronze", "bubbly",
	"busy", "calm", "candid", "careful", "cheerful", "chilly", "civil", "clean",
	"clever", "cloudy", "coastal", "cold", "colossal", "cool", "cosmic", "cozy",
	"crimson", "crisp", "curious", "dapper", "daring", "dark", "dazzling", "deep",
	"eager", "early", "earnest", "easy", "electric", "elegant", "emerald", "epic",
	"fair", "faithful", "fancy", "fast", "fearless", "fierce", "fluffy", "fond",
	"frosty", "fuzzy", "gentle", "giant", "gifted", "glad", "gleaming", "golden",
	"graceful", "grand", "green", "happy", "hardy", "hasty", "hidden", "hollow",
	"humble", "icy", "jolly", "jovial", "keen", "kind", "large", "lazy",
	"little", "lively", "lone", "loud", "lucky", "lunar", "mellow", "merry",
	"mighty", "misty", "modest", "muddy", "nimble", "noble", "odd", "old",
	"orange", "patient", "plain", "polite", "proud", "purple", "quick", "quiet",
	"rapid", "rare", "red", "robust", "rough", "round", "royal", "rustic",
	"sandy", "serene", "shiny", "silent", "silver", "sleepy", "sly", "small",
	"smooth", "snowy", "solar", "solid", "spicy", "steady", "stormy", "sturdy",
	"sunny", "swift", "tall", "tame", "tender", "tidy", "tiny", "tough",
	"tranquil", "vast", "vivid", "warm", "wild", "wise", "witty", "young",
}

var nouns = []string{
	"acorn", "agate", "albatross", "alpaca", "anchor", "antelope", "apple", "arch",
	"badger", "bay", "beacon", "bear", "beaver", "bee", "birch", "bison",
	"boulder", "breeze", "brook", "buffalo", "butterfly", "camel", "canyon", "cardinal",
	"cat", "cedar", "cheetah", "cliff", "cloud", "comet", "coral", "cougar",
	"coyote", "crane", "creek", "crow", "cypress", "deer", "delta", "dolphin",
	"dove", "dragon", "dune", "eagle", "elk", "elm", "falcon", "fern",
	"finch", "fjord", "flamingo", "forest", "fox", "frog", "gazelle", "geyser",
	"glacier", "goose", "gorilla", "grove", "gull", "harbor", "hare", "hawk",
	"hedgehog", "heron", "hill", "horizon", "ibis", "island", "jaguar", "jay",
	"kestrel", "koala", "lagoon", "lake", "lark", "lemur", "leopard", "lily",
	"lion", "lynx", "magpie", "maple", "marsh", "meadow", "meteor", "mink",
	"moon", "moose", "moth", "mountain", "nebula", "newt", "oak", "ocean",
	"orca", "osprey", "otter", "owl", "panda", "panther", "parrot", "peak",
	"pebble", "pelican", "penguin", "pine", "planet", "plateau", "pond", "puffin",
	"quail", "rabbit", "raccoon", "raven", "reef", "ridge", "river", "robin",
	"salmon", "seal", "shark", "sparrow", "spruce", "star", "stone", "stream",
	"summit", "swan", "thunder", "tiger", "trout", "tundra", "turtle", "valley",
	"volcano", "walrus", "wave", "willow", "wolf", "wombat", "wren", "zebra",
}
