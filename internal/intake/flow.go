package intake

import (
	"context"
	"strconv"
	"strings"
)

// MaxFollowUps is how many clarifying questions a tenant gets before the
// description is filed as it stands.
const MaxFollowUps = 3

// Assistant judges and classifies maintenance descriptions.
type Assistant interface {
	AssessCompleteness(ctx context.Context, description string) (complete bool, followUp string, err error)
	ClassifyIssue(ctx context.Context, description string) (string, error)
}

// Outcome is the result of one chat turn. When Done is set the description
// is ready to be filed as a maintenance request.
type Outcome struct {
	Done        bool
	Reply       string
	Description string
	Media       []string
	IssueType   string
}

type Flow struct {
	store     Store
	assistant Assistant
}

func NewFlow(store Store, assistant Assistant) *Flow {
	return &Flow{store: store, assistant: assistant}
}

// Handle appends message to the tenant's pending description and either asks
// a follow-up question or finalises the intake. A finalised intake stays
// stored until Reset, so callers Reset only once the request is filed.
func (f *Flow) Handle(ctx context.Context, tenantID int, message string, media []string) (Outcome, error) {
	var (
		out     Outcome
		turnErr error
	)
	err := f.store.Update(ctx, strconv.Itoa(tenantID), func(st *State) (bool, error) {
		out, turnErr = Outcome{}, nil

		st.Description = appendLine(st.Description, message)
		st.Media = append(st.Media, media...)

		complete, followUp, err := f.assistant.AssessCompleteness(ctx, st.Description)
		if err != nil {
			// Keep the message; the next turn re-assesses it.
			turnErr = err
			return true, nil
		}

		if !complete && st.Rounds < MaxFollowUps {
			st.Rounds++
			out.Reply = followUp
			return true, nil
		}

		issueType, err := f.assistant.ClassifyIssue(ctx, st.Description)
		if err != nil {
			turnErr = err
			return true, nil
		}
		out = Outcome{
			Done:        true,
			Description: st.Description,
			Media:       append([]string{}, st.Media...),
			IssueType:   issueType,
		}
		return true, nil
	})
	if err != nil {
		return Outcome{}, err
	}
	if turnErr != nil {
		return Outcome{}, turnErr
	}
	return out, nil
}

// Reset drops any pending intake for tenantID.
func (f *Flow) Reset(ctx context.Context, tenantID int) error {
	return f.store.Update(ctx, strconv.Itoa(tenantID), func(*State) (bool, error) {
		return false, nil
	})
}

func appendLine(desc, msg string) string {
	msg = strings.TrimSpace(msg)
	if desc == "" {
		return msg
	}
	if msg == "" {
		return desc
	}
	return desc + "\n" + msg
}
