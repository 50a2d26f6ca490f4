package gmail

import (
	"context"
	"fmt"
	"maps"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/inboxsizer/internal/classify"
	"github.com/teemow/inboxsizer/internal/instrumentation"
)

// SizeLabelIDs returns the label id of every size label present in the
// mailbox, matched by exact name. With create set, missing labels are
// created first. The mapping is cached once all four labels are known; every
// call returns its own copy.
func (c *Client) SizeLabelIDs(ctx context.Context, create bool) (map[classify.Label]string, error) {
	c.labelMu.Lock()
	defer c.labelMu.Unlock()

	if len(c.labelIDs) == len(classify.SizeLabels) {
		return maps.Clone(c.labelIDs), nil
	}

	var res *gmail.ListLabelsResponse
	err := c.call(ctx, instrumentation.OperationListLabels, func(ctx context.Context) error {
		var err error
		res, err = c.svc.Labels.List(userID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	byName := make(map[string]string, len(res.Labels))
	for _, l := range res.Labels {
		byName[l.Name] = l.Id
	}

	ids := make(map[classify.Label]string, len(classify.SizeLabels))
	for _, label := range classify.SizeLabels {
		if id, ok := byName[string(label)]; ok {
			ids[label] = id
			continue
		}
		if !create {
			continue
		}
		id, err := c.createLabel(ctx, string(label))
		if err != nil {
			return nil, err
		}
		ids[label] = id
	}

	if len(ids) == len(classify.SizeLabels) {
		c.labelIDs = maps.Clone(ids)
	}
	return ids, nil
}

func (c *Client) createLabel(ctx context.Context, name string) (string, error) {
	var created *gmail.Label
	err := c.call(ctx, instrumentation.OperationCreateLabel, func(ctx context.Context) error {
		var err error
		created, err = c.svc.Labels.Create(userID, &gmail.Label{
			Name:                  name,
			LabelListVisibility:   "labelShow",
			MessageListVisibility: "show",
		}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to create label %s: %w", name, err)
	}
	c.logger.Info("created size label", "label", name, "label_id", created.Id)
	return created.Id, nil
}
