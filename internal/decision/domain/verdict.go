package domain

type Tone string

const (
	TonePositive Tone = "positive"
	ToneCaution  Tone = "caution"
	ToneNegative Tone = "negative"
	ToneNeutral  Tone = "neutral"
)

const (
	VerdictGoForIt = "Go For It"
	VerdictCaution = "Proceed with Caution"
	VerdictHoldOff = "Hold Off"
)

// VerdictStyle is how a verdict is presented.
type VerdictStyle struct {
	Tone    Tone   `json:"tone"`
	Message string `json:"message"`
}

var verdictStyles = map[string]VerdictStyle{
	VerdictGoForIt: {Tone: TonePositive, Message: "Strong recommendation to proceed"},
	VerdictCaution: {Tone: ToneCaution, Message: "Proceed carefully with planning"},
	VerdictHoldOff: {Tone: ToneNegative, Message: "Consider postponing this decision"},
}

// StyleFor returns the presentation of verdict. Unknown verdicts are neutral.
func StyleFor(verdict string) VerdictStyle {
	if s, ok := verdictStyles[verdict]; ok {
		return s
	}
	return VerdictStyle{Tone: ToneNeutral}
}
