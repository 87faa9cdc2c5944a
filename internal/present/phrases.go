package present

// closingPhrases is the pool the end-of-story payload draws from, to keep
// repeated endings from reading identically.
var closingPhrases = []string{
	"The End.",
	"And that's the end of that.",
	"Fin.",
	"And so the story ends.",
	"That's all there is. There isn't any more.",
	"The curtain falls.",
}
