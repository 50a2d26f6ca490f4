package review_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxsizer/internal/classify"
	"github.com/teemow/inboxsizer/internal/review"
	"github.com/teemow/inboxsizer/internal/server"
	"github.com/teemow/inboxsizer/internal/tools/batch"
	"github.com/teemow/inboxsizer/internal/tools/common"
)

const (
	ToolListBatch       = "gmail_size_list_batch"
	ToolClassifyMessage = "gmail_size_classify_message"
	ToolApplyLabels     = "gmail_size_apply_labels"
)

// RegisterReviewTools registers the sizing tools. Write tools are skipped
// when readOnly is set.
func RegisterReviewTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listBatchTool := mcp.NewTool(ToolListBatch,
		mcp.WithDescription("Classify one page of inbox messages that have no size label yet. "+
			"Returns each message with its word count, suggested label (Short ≤250 words, Medium ≤1500, Long ≤5000, XL above), "+
			"cleaned body and paywall flag, plus a nextPageToken for the following page."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("account",
			mcp.Description("Account name (default: the configured account). Used to manage multiple Google accounts."),
		),
		mcp.WithString("pageToken",
			mcp.Description("Continuation token from a previous call. Omit for the first page."),
		),
		mcp.WithBoolean("includeBody",
			mcp.Description("Include the cleaned message body in the result (default: true)"),
		),
	)
	s.AddTool(listBatchTool, common.InstrumentedToolHandler(ToolListBatch, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListBatch(ctx, request, sc)
		}))

	classifyTool := mcp.NewTool(ToolClassifyMessage,
		mcp.WithDescription("Classify one or more Gmail messages by id without changing them"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("account",
			mcp.Description("Account name (default: the configured account). Used to manage multiple Google accounts."),
		),
		mcp.WithString("messageIds",
			mcp.Required(),
			mcp.Description("Message ID (string) or array of message IDs to classify"),
		),
	)
	s.AddTool(classifyTool, common.InstrumentedToolHandler(ToolClassifyMessage, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleClassifyMessage(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	applyTool := mcp.NewTool(ToolApplyLabels,
		mcp.WithDescription("Apply reviewer decisions to messages. Each decision is "+
			`{"id": "<message id>", "label": "Short|Medium|Long|XL|skip|archive"}. `+
			"A size label keeps the message in the inbox, archive removes it from the inbox, skip changes nothing."),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("account",
			mcp.Description("Account name (default: the configured account). Used to manage multiple Google accounts."),
		),
		mcp.WithString("labelsToApply",
			mcp.Required(),
			mcp.Description(`JSON array of decisions, e.g. [{"id":"18c1...","label":"Long"}]`),
		),
		mcp.WithString("batchId",
			mcp.Description("Batch id returned by gmail_size_list_batch, recorded in the history"),
		),
	)
	s.AddTool(applyTool, common.InstrumentedToolHandler(ToolApplyLabels, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleApplyLabels(ctx, request, sc)
		}))

	return nil
}

func reviewService(request mcp.CallToolRequest, sc *server.ServerContext) (*review.Service, *mcp.CallToolResult) {
	account := common.GetAccountFromArgs(request.GetArguments(), sc.DefaultAccount())
	svc, err := sc.ReviewService(account)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return svc, nil
}

func handleListBatch(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, errResult := reviewService(request, sc)
	if errResult != nil {
		return errResult, nil
	}

	args := request.GetArguments()
	pageToken, _ := args["pageToken"].(string)
	includeBody := true
	if v, ok := args["includeBody"].(bool); ok {
		includeBody = v
	}

	b, err := svc.FetchBatch(ctx, pageToken)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch emails: %v", err)), nil
	}
	if !includeBody {
		for i := range b.Messages {
			b.Messages[i].Body = ""
		}
	}
	return jsonResult(b)
}

// ClassifyResult is the result of gmail_size_classify_message.
type ClassifyResult struct {
	Messages []classify.Message `json:"emails"`
	Failures []batch.Result     `json:"failures"`
}

func handleClassifyMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	ids, err := batch.ParseStringOrArray(request.GetArguments()["messageIds"], "messageIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	svc, errResult := reviewService(request, sc)
	if errResult != nil {
		return errResult, nil
	}

	type item struct {
		idx int
		id  string
	}
	items := make([]item, len(ids))
	for i, id := range ids {
		items[i] = item{idx: i, id: id}
	}

	records := make([]classify.Message, len(ids))
	results := batch.ProcessEach(ctx, items, svc.Parallelism(),
		func(it item) string { return it.id },
		func(ctx context.Context, it item) (string, error) {
			rec, err := svc.ClassifyOne(ctx, it.id)
			if err != nil {
				return "", err
			}
			records[it.idx] = rec
			return string(rec.SuggestedLabel), nil
		})

	out := ClassifyResult{Messages: []classify.Message{}, Failures: []batch.Result{}}
	for i, r := range results {
		if r.Succeeded() {
			out.Messages = append(out.Messages, records[i])
		} else {
			out.Failures = append(out.Failures, r)
		}
	}
	return jsonResult(out)
}

func handleApplyLabels(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	decisions, err := parseDecisions(args["labelsToApply"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if batchID, ok := args["batchId"].(string); ok && batchID != "" {
		for i := range decisions {
			if decisions[i].BatchID == "" {
				decisions[i].BatchID = batchID
			}
		}
	}

	svc, errResult := reviewService(request, sc)
	if errResult != nil {
		return errResult, nil
	}

	return mcp.NewToolResultText(batch.FormatResults(svc.Apply(ctx, decisions))), nil
}

// parseDecisions accepts a JSON string or an already decoded array.
func parseDecisions(param interface{}) ([]review.Decision, error) {
	var raw []byte
	switch v := param.(type) {
	case nil:
		return nil, fmt.Errorf("labelsToApply is required")
	case string:
		raw = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("labelsToApply is not valid: %w", err)
		}
		raw = b
	}

	var decisions []review.Decision
	if err := json.Unmarshal(raw, &decisions); err != nil {
		return nil, fmt.Errorf("labelsToApply must be a JSON array of {id, label}: %w", err)
	}
	if len(decisions) == 0 {
		return nil, fmt.Errorf("labelsToApply cannot be empty")
	}
	for i, d := range decisions {
		if d.ID == "" {
			return nil, fmt.Errorf("labelsToApply[%d].id is required", i)
		}
	}
	return decisions, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
