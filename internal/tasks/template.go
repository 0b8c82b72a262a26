package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/roelfdiedericks/taskclaw/internal/store"
)

// TemplateValue is a discriminated payload value — numeric, string, or a
// list of tags — never unrestricted JSON, so a malformed template can't
// corrupt a task field it was never meant to touch.
type TemplateValue struct {
	Number *float64 `json:"number,omitempty"`
	String *string  `json:"string,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// Template mirrors the templates table.
type Template struct {
	Name       string
	Payload    map[string]TemplateValue
	CreatedTs  time.Time
	ModifiedTs time.Time
}

// GetTemplate loads a template by name. Returns (Template{}, false, nil) if
// it doesn't exist.
func GetTemplate(ctx context.Context, s *store.Store, name string) (Template, bool, error) {
	var payloadJSON string
	var created, modified int64
	err := s.DB().QueryRowContext(ctx,
		`SELECT payload_json, created_ts, modified_ts FROM templates WHERE name = ?`, name).
		Scan(&payloadJSON, &created, &modified)
	if err == sql.ErrNoRows {
		return Template{}, false, nil
	}
	if err != nil {
		return Template{}, false, storeError("load template", err)
	}

	var payload map[string]TemplateValue
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return Template{}, false, storeError("parse template payload", err)
	}
	return Template{
		Name:       name,
		Payload:    payload,
		CreatedTs:  time.Unix(created, 0),
		ModifiedTs: time.Unix(modified, 0),
	}, true, nil
}

// GetTemplateTx is GetTemplate's transaction-scoped variant.
func GetTemplateTx(ctx context.Context, tx *sql.Tx, name string) (Template, bool, error) {
	var payloadJSON string
	var created, modified int64
	err := tx.QueryRowContext(ctx,
		`SELECT payload_json, created_ts, modified_ts FROM templates WHERE name = ?`, name).
		Scan(&payloadJSON, &created, &modified)
	if err == sql.ErrNoRows {
		return Template{}, false, nil
	}
	if err != nil {
		return Template{}, false, storeError("load template", err)
	}

	var payload map[string]TemplateValue
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return Template{}, false, storeError("parse template payload", err)
	}
	return Template{
		Name:       name,
		Payload:    payload,
		CreatedTs:  time.Unix(created, 0),
		ModifiedTs: time.Unix(modified, 0),
	}, true, nil
}

// SaveTemplate creates or replaces a template's payload.
func SaveTemplate(ctx context.Context, s *store.Store, name string, payload map[string]TemplateValue) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return storeError("encode template payload", err)
	}
	now := time.Now().Unix()
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO templates (name, payload_json, created_ts, modified_ts) VALUES (?, ?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET payload_json = excluded.payload_json, modified_ts = excluded.modified_ts`,
			name, string(data), now, now)
		return err
	})
}

// applyTemplate merges a template's payload into a CreateInput that
// references it. Task-supplied scalar values override the template's;
// tags are the union of template tags and task-specified tags; UDAs
// override the template's key-by-key.
func applyTemplate(in CreateInput, tmpl Template) CreateInput {
	if v, ok := tmpl.Payload["description"]; ok && v.String != nil && in.Description == "" {
		in.Description = *v.String
	}
	if v, ok := tmpl.Payload["alloc_secs"]; ok && v.Number != nil && in.AllocSecs == nil {
		secs := int64(*v.Number)
		in.AllocSecs = &secs
	}
	if v, ok := tmpl.Payload["recur"]; ok && v.String != nil && in.Recur == "" {
		in.Recur = *v.String
	}

	tagSet := map[string]struct{}{}
	var merged []string
	if v, ok := tmpl.Payload["tags"]; ok {
		for _, tg := range v.Tags {
			if _, seen := tagSet[tg]; !seen {
				tagSet[tg] = struct{}{}
				merged = append(merged, tg)
			}
		}
	}
	for _, tg := range in.Tags {
		if _, seen := tagSet[tg]; !seen {
			tagSet[tg] = struct{}{}
			merged = append(merged, tg)
		}
	}
	in.Tags = merged

	merged2 := map[string]string{}
	for k, v := range tmpl.Payload {
		if k == "description" || k == "alloc_secs" || k == "recur" || k == "tags" {
			continue
		}
		if v.String != nil {
			merged2[k] = *v.String
		}
	}
	for k, v := range in.UDAs {
		merged2[k] = v
	}
	in.UDAs = merged2

	return in
}
