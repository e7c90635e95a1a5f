// Package cleanup provides the idle-session sweep worker and its
// console reporter.
package cleanup

import "fmt"

const (
	grey    = "\033[38;2;110;118;129m" // Brighter Grey: #6E7681
	success = "\033[38;2;62;130;144m"  // Dim Cyan: #3E8290
	white   = "\033[38;2;171;178;191m" // One Dark Foreground: #ABB2BF
	reset   = "\033[0m"
	bold    = "\033[1m"
)

// Reporter prints sweep progress to the console.
type Reporter struct{}

// NewReporter creates a sweep reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

func (r *Reporter) LogStage(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Printf("%s%s✦ %s%s%s\n", success, bold, grey, formattedMsg, reset)
}

func (r *Reporter) LogSuccess(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Printf("%s%s✦ %s%s%s\n", success, bold, white, formattedMsg, reset)
}

func (r *Reporter) LogInfo(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Printf("%s• %s%s\n", grey, formattedMsg, reset)
}
