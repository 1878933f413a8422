package smoke

import (
	"context"
	"fmt"
	"time"

	"ideaboard/api/internal/backend"
)

func SubscriptionSuite() Suite {
	return Suite{
		Name:       "subscriptions",
		Collection: backend.Subscriptions,
		Create: func(ctx context.Context, c *backend.Client) (backend.Result, error) {
			return c.Create(ctx, backend.Subscriptions, map[string]any{
				"name":         "Smoke Test Subscription",
				"description":  "Created by the API smoke test",
				"provider":     "Smoke Test Inc.",
				"cost":         9.99,
				"billingCycle": "MONTHLY",
				"status":       "ACTIVE",
				"startDate":    time.Now().Format("2006-01-02"),
			})
		},
		Patch: map[string]any{"description": "Updated by the API smoke test"},
	}
}

// EvidenceSuites returns one suite per text-based evidence type.
func EvidenceSuites(projectID, uploadedBy string) []Suite {
	variants := []struct {
		kind backend.EvidenceType
		url  string
	}{
		{kind: backend.EvidenceText},
		{kind: backend.EvidenceLink, url: "https://example.com/smoke-test"},
	}
	suites := make([]Suite, 0, len(variants))
	for _, v := range variants {
		upload := backend.EvidenceUpload{
			Title:       fmt.Sprintf("Smoke Test %s Evidence", v.kind),
			Description: "Created by the API smoke test",
			Type:        v.kind,
			Category:    "TESTING",
			ProjectID:   projectID,
			UploadedBy:  uploadedBy,
			URL:         v.url,
		}
		suites = append(suites, Suite{
			Name:       "evidence/" + string(v.kind),
			Collection: backend.Evidence,
			Create: func(ctx context.Context, c *backend.Client) (backend.Result, error) {
				return c.CreateEvidence(ctx, upload)
			},
			Patch: map[string]any{"description": "Updated by the API smoke test"},
		})
	}
	return suites
}
