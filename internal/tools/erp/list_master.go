package erp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vyaapari360/munim/internal/tally"
	"github.com/vyaapari360/munim/internal/tools"
)

// ListMasterTool returns master data collections: account groups, voucher
// types, units, godowns and stock groups.
type ListMasterTool struct {
	cfg Config
}

func (t *ListMasterTool) Name() string { return "list_master" }

func (t *ListMasterTool) Description() string {
	return "Retrieve master data from the ERP system. This function returns lists of business entities " +
		"such as ledgers, stock items, voucher types, etc. The data is automatically filtered to the current " +
		"company and division context. Use this when the user asks about available options, lists, or master data."
}

func (t *ListMasterTool) InputSchema() map[string]any {
	collections := make([]any, len(tally.MasterCollections))
	for i, c := range tally.MasterCollections {
		collections[i] = c
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"collection": map[string]any{
				"type":        "string",
				"enum":        collections,
				"description": "The type of master data to retrieve",
			},
		},
		"required":             []any{"collection"},
		"additionalProperties": false,
	}
}

func (t *ListMasterTool) Validate(params map[string]any) error {
	_, err := requireString(params, "collection")
	return err
}

func (t *ListMasterTool) Execute(ctx context.Context, params map[string]any) (*tools.Result, error) {
	collection, err := requireString(params, "collection")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.queryTimeout())
	defer cancel()

	records, err := t.cfg.Store.ListMaster(ctx, t.cfg.Tenant, collection)
	if err != nil {
		t.cfg.Logger.WarnContext(ctx, "list_master failed",
			slog.String("collection", collection), slog.Any("error", err))
		var unsupported *tally.UnsupportedCollectionError
		if errors.As(err, &unsupported) {
			return errorResult("Unsupported collection", err)
		}
		return errorResult("Failed to retrieve data", err)
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshaling master records: %w", err)
	}
	return &tools.Result{
		Output:   tools.TruncateOutput(string(payload), tools.MaxOutputBytes),
		Metadata: map[string]any{"records_count": len(records), "collection": collection},
		Success:  true,
	}, nil
}
