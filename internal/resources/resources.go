package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxsizer/internal/classify"
	"github.com/teemow/inboxsizer/internal/server"
	"github.com/teemow/inboxsizer/internal/store"
)

const (
	LabelsURI  = "inboxsizer://labels"
	HistoryURI = "inboxsizer://history"

	historyLimit = 50
)

// LabelBand is the word count range of one size label. MaxWords is 0 for
// the open-ended XL band.
type LabelBand struct {
	Label    classify.Label `json:"label"`
	MinWords int            `json:"minWords"`
	MaxWords int            `json:"maxWords,omitempty"`
}

// RegisterResources registers the label and history resources.
func RegisterResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	labelsResource := mcp.NewResource(
		LabelsURI,
		"Size Labels",
		mcp.WithResourceDescription("Reading-length labels and the word count band each one covers"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(labelsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleLabels(ctx, request)
	})

	historyResource := mcp.NewResource(
		HistoryURI,
		"Decision History",
		mcp.WithResourceDescription(fmt.Sprintf("The %d most recently applied label and archive decisions", historyLimit)),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(historyResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleHistory(ctx, request, sc)
	})

	return nil
}

// LabelBands returns the bands from shortest to longest.
func LabelBands() []LabelBand {
	return []LabelBand{
		{Label: classify.LabelShort, MinWords: 0, MaxWords: classify.MediumThreshold},
		{Label: classify.LabelMedium, MinWords: classify.MediumThreshold + 1, MaxWords: classify.LongThreshold},
		{Label: classify.LabelLong, MinWords: classify.LongThreshold + 1, MaxWords: classify.XLThreshold},
		{Label: classify.LabelXL, MinWords: classify.XLThreshold + 1},
	}
}

func handleLabels(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(request.Params.URI, map[string]interface{}{
		"labels":  LabelBands(),
		"actions": []classify.Action{classify.ActionSkip, classify.ActionArchive},
	})
}

func handleHistory(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	decisions, err := sc.RecentDecisions(ctx, historyLimit)
	if errors.Is(err, server.ErrNoHistory) {
		decisions = []store.Decision{}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read decision history: %w", err)
	}
	if decisions == nil {
		decisions = []store.Decision{}
	}
	return jsonContents(request.Params.URI, map[string]interface{}{
		"enabled":   err == nil,
		"decisions": decisions,
	})
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource data: %w", err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
