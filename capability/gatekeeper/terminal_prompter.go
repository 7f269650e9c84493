package gatekeeper

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/reglet-dev/capability-arbiter/capability"
)

const (
	OptionYes    = "Yes, allow this time"
	OptionAlways = "Always allow (save to grants)"
	OptionNo     = "No, deny"
	OptionNever  = "Deny and don't ask again"
)

// TerminalPrompter provides interactive terminal prompting for capability grants.
type TerminalPrompter struct {
	in  *os.File
	out io.Writer
	app string
}

// NewTerminalPrompter creates a new TerminalPrompter reading from stdin.
// app names the application in the prompt title.
func NewTerminalPrompter(app string) *TerminalPrompter {
	return &TerminalPrompter{in: os.Stdin, out: os.Stderr, app: app}
}

// IsInteractive checks if we're running in an interactive terminal.
func (p *TerminalPrompter) IsInteractive() bool {
	fileInfo, err := p.in.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// PromptForCapability asks the user to grant a capability.
func (p *TerminalPrompter) PromptForCapability(req capability.Request) (capability.Answer, error) {
	if req.IsBroad {
		_, _ = fmt.Fprintf(p.out, "\n")
		_, _ = fmt.Fprintf(p.out, "\033[1;33mSecurity Warning: Broad Permission Requested\033[0m\n\n")
		_, _ = fmt.Fprintf(p.out, "  %s\n", req.Description)
		_, _ = fmt.Fprintf(p.out, "  Recommendation: Review if this broad access is necessary.\n")
		_, _ = fmt.Fprintf(p.out, "\n")
	}

	var selection string

	err := huh.NewSelect[string]().
		Title(p.title(req)).
		Description(fmt.Sprintf("%s (risk: %s)", req.Description, req.Risk)).
		Options(
			huh.NewOption(OptionYes, OptionYes),
			huh.NewOption(OptionAlways, OptionAlways),
			huh.NewOption(OptionNo, OptionNo),
			huh.NewOption(OptionNever, OptionNever),
		).
		Value(&selection).
		Run()
	if err != nil {
		return capability.AnswerDeny, err
	}

	return ParseSelection(selection), nil
}

func (p *TerminalPrompter) title(req capability.Request) string {
	if p.app == "" {
		return fmt.Sprintf("Allow access to %s?", req.Capability)
	}
	return fmt.Sprintf("Allow %s to access %s?", p.app, req.Capability)
}

// ParseSelection maps a prompt option to an answer. Unknown options deny.
func ParseSelection(selection string) capability.Answer {
	switch selection {
	case OptionYes:
		return capability.AnswerGrant
	case OptionAlways:
		return capability.AnswerAlways
	case OptionNever:
		return capability.AnswerNever
	default:
		return capability.AnswerDeny
	}
}

// FormatNonInteractiveError creates a helpful error message for non-interactive mode.
func (p *TerminalPrompter) FormatNonInteractiveError(missing []capability.Capability) error {
	return FormatNonInteractiveError(missing)
}

// FormatNonInteractiveError lists the capabilities that could not be prompted for.
func FormatNonInteractiveError(missing []capability.Capability) error {
	var msg strings.Builder
	msg.WriteString("Capabilities require a decision (running in non-interactive mode)\n\n")
	msg.WriteString("Required capabilities:\n")
	for _, c := range missing {
		msg.WriteString(fmt.Sprintf("  - %s\n", c))
	}

	msg.WriteString("\nTo grant these capabilities:\n")
	msg.WriteString("  1. Run interactively and approve when prompted\n")
	msg.WriteString("  2. Add them to auto_grant in the configuration\n")
	msg.WriteString("  3. Use security_level: permissive (grants all capabilities)\n")

	return fmt.Errorf("%s", msg.String())
}
