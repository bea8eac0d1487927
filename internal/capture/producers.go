package capture

import (
	"fmt"
	"strings"

	"github.com/halvard/muninn/internal/inbox"
	"github.com/halvard/muninn/internal/models"
)

// FromConversation stages learnings (as patterns) and decisions (as
// decisions) from an AI session, tagging each with the session summary as
// capture context. Returns the written paths.
func FromConversation(in *inbox.Inbox, summary string, learnings, decisions []string, context string) ([]string, error) {
	domain := SuggestDomain(context)
	var paths []string

	stage := func(kind models.KnowledgeType, body string) error {
		item := models.NewInboxItem(kind, domain, models.MethodAISession, body)
		item.CaptureContext = summary
		item.Source = context
		path, err := in.Add(&item)
		if err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	}

	for _, learning := range learnings {
		if err := stage(models.TypePattern, learning); err != nil {
			return paths, err
		}
	}
	for _, decision := range decisions {
		if err := stage(models.TypeDecision, decision); err != nil {
			return paths, err
		}
	}
	return paths, nil
}

// FromURL stages a concept captured from the web: the URL becomes the
// source, the body is the title heading plus summary.
func FromURL(in *inbox.Inbox, url, title, summary string, tags []string, domain string) (string, error) {
	if domain == "" {
		domain = "general"
	}
	item := models.NewInboxItem(models.TypeConcept, domain, models.MethodWebCapture,
		fmt.Sprintf("# %s\n\n%s", title, summary))
	item.Source = url
	item.Tags = tags
	return in.Add(&item)
}

// FromText stages a plain text concept with optional source and domain.
func FromText(in *inbox.Inbox, text, source, domain string) (string, error) {
	if domain == "" {
		domain = "general"
	}
	item := models.NewInboxItem(models.TypeConcept, domain, models.MethodManual, text)
	item.Source = source
	return in.Add(&item)
}

// SuggestDomain maps keywords in a context string to a domain path,
// defaulting to "general".
func SuggestDomain(context string) string {
	if context == "" {
		return "general"
	}
	ctx := strings.ToLower(context)

	switch {
	case strings.Contains(ctx, "rust"):
		return "coding/rust"
	case strings.Contains(ctx, "python"):
		return "coding/python"
	case strings.Contains(ctx, "javascript"),
		strings.Contains(ctx, "typescript"),
		strings.Contains(ctx, "react"):
		return "coding/javascript"
	case strings.Contains(ctx, "golang"),
		strings.Contains(ctx, " go "),
		strings.HasPrefix(ctx, "go "),
		strings.HasSuffix(ctx, " go"):
		return "coding/go"
	default:
		return "general"
	}
}
