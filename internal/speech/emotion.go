package speech

import "regexp"

// Expression is the facial expression the avatar should take while speaking.
type Expression string

const (
	ExpressionNeutral   Expression = "neutral"
	ExpressionHappy     Expression = "happy"
	ExpressionSad       Expression = "sad"
	ExpressionSurprised Expression = "surprised"
	ExpressionAngry     Expression = "angry"
)

// Keyword lists are checked in order; the first match wins, so an excited
// "amazing" reads as happy rather than surprised.
var emotionRules = []struct {
	expr Expression
	re   *regexp.Regexp
}{
	{ExpressionHappy, regexp.MustCompile(`(?i)\b(happy|joy|excited|great|awesome|wonderful|amazing|fantastic|excellent|good|smile|laugh)\b`)},
	{ExpressionSad, regexp.MustCompile(`(?i)\b(sad|sorry|disappointed|upset|cry|tears|awful|terrible|bad|depressed)\b`)},
	{ExpressionSurprised, regexp.MustCompile(`(?i)\b(wow|amazing|incredible|unbelievable|surprised|shocked|omg|really)\b`)},
	{ExpressionAngry, regexp.MustCompile(`(?i)\b(angry|mad|furious|annoyed|frustrated|hate|damn|stupid|idiot)\b`)},
}

// AnalyzeEmotion picks the expression to show while a reply is spoken, based
// on simple keyword matching over the reply text.
func AnalyzeEmotion(text string) Expression {
	for _, rule := range emotionRules {
		if rule.re.MatchString(text) {
			return rule.expr
		}
	}
	return ExpressionNeutral
}
