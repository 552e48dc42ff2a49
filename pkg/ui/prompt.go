package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"igrelations/pkg/relations"
)

const (
	categoryChoices = "(1: mutual, 2: not following back, 3: not followed back) [1]: "

	// CategoryPrompt is shown before reading the category choice
	CategoryPrompt = "Choose data to fetch " + categoryChoices
	// CategoryRetryPrompt is shown after an invalid choice
	CategoryRetryPrompt = "Invalid choice. Please choose " + categoryChoices
)

// ErrNoChoice is returned when input ends before a valid choice
var ErrNoChoice = errors.New("no category chosen")

// PromptCategory asks for a category until the answer is 1, 2, 3 or empty.
// Empty input selects mutual.
func PromptCategory(in io.Reader, out io.Writer) (relations.Category, error) {
	reader := bufio.NewReader(in)
	prompt := CategoryPrompt

	for {
		if _, err := fmt.Fprint(out, prompt); err != nil {
			return 0, err
		}

		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return 0, ErrNoChoice
			}
			return 0, fmt.Errorf("failed to read choice: %w", err)
		}

		switch strings.TrimSpace(line) {
		case "", "1":
			return relations.Mutual, nil
		case "2":
			return relations.NotFollowingBack, nil
		case "3":
			return relations.NotFollowedBack, nil
		}

		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return 0, ErrNoChoice
		}
		prompt = CategoryRetryPrompt
	}
}
