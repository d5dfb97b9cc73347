package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/reclaim/internal/ui"
)

// confirmToken must be typed exactly to start a targeted run.
const confirmToken = "OBLITERATE"

// Prompter reads one answer from the user (allows mocking in tests)
type Prompter interface {
	Input(message string) (string, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string) (string, error) {
	result := ""
	if err := survey.AskOne(&survey.Input{Message: message}, &result); err != nil {
		// Ctrl+C at the prompt is a refusal, not a failure.
		if errors.Is(err, terminal.InterruptErr) {
			return "", nil
		}
		return "", err
	}
	return result, nil
}

// LinePrompter reads a single line from a non-interactive input.
type LinePrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p *LinePrompter) Input(message string) (string, error) {
	fmt.Fprint(p.Out, message+" ")
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

// newPrompter picks survey for terminals and a line reader otherwise.
var newPrompter = func(cmd *cobra.Command) Prompter {
	if in, ok := cmd.InOrStdin().(*os.File); ok && isatty.IsTerminal(in.Fd()) {
		return &SurveyPrompter{}
	}
	return &LinePrompter{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
}

// confirmTargets warns about a targeted run and asks for confirmToken.
func confirmTargets(p Prompter, out io.Writer, apps []string) (bool, error) {
	fmt.Fprintln(out, ui.WarningStyle().Render(ui.IconWarning+" Everything reclaim can find for these applications will be removed."))
	fmt.Fprintln(out, ui.ErrorStyle().Render("  This cannot be undone."))
	fmt.Fprintln(out, "  Targets: "+strings.Join(apps, ", "))
	fmt.Fprintln(out)

	answer, err := p.Input(fmt.Sprintf("Type %s to confirm:", confirmToken))
	if err != nil {
		return false, err
	}
	if answer != confirmToken {
		fmt.Fprintln(out, ui.MutedStyle().Render("Operation cancelled. Nothing was changed."))
		return false, nil
	}
	return true, nil
}
