package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type CompleterEntry struct {
	Name      string
	Completer ICompleter
}

type EmbedderEntry struct {
	Name     string
	Embedder IEmbedder
}

type groupCompleter struct {
	items []CompleterEntry
}

// NewGroupCompleter chains completers as a failover group: the first entry
// that answers wins, later entries only see traffic after earlier failures.
func NewGroupCompleter(items []CompleterEntry) ICompleter {
	if len(items) == 0 {
		return nil
	}
	if len(items) == 1 && items[0].Completer != nil {
		return items[0].Completer
	}
	return &groupCompleter{items: items}
}

func (g *groupCompleter) Complete(ctx context.Context, msgs []Message) (*Completion, error) {
	var lastErr error
	for i, item := range g.items {
		if item.Completer == nil {
			continue
		}
		res, err := item.Completer.Complete(ctx, msgs)
		if err == nil {
			return res, nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("completer failed", zap.Int("index", i), zap.String("name", item.Name), zap.Error(err))
	}
	if lastErr == nil {
		return nil, fmt.Errorf("completer not configured")
	}
	return nil, lastErr
}

func (g *groupCompleter) ModelName() string {
	names := make([]string, 0, len(g.items))
	for _, item := range g.items {
		if item.Name == "" {
			continue
		}
		names = append(names, item.Name)
	}
	return strings.Join(names, "|")
}

type groupEmbedder struct {
	items []EmbedderEntry
}

func NewGroupEmbedder(items []EmbedderEntry) IEmbedder {
	if len(items) == 0 {
		return nil
	}
	if len(items) == 1 && items[0].Embedder != nil {
		return items[0].Embedder
	}
	return &groupEmbedder{items: items}
}

func (g *groupEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for i, item := range g.items {
		if item.Embedder == nil {
			continue
		}
		res, err := item.Embedder.Embed(ctx, text)
		if err == nil {
			return res, nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("embedder failed", zap.Int("index", i), zap.String("name", item.Name), zap.Error(err))
	}
	if lastErr == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	return nil, lastErr
}

func (g *groupEmbedder) ModelName() string {
	names := make([]string, 0, len(g.items))
	for _, item := range g.items {
		if item.Name == "" {
			continue
		}
		names = append(names, item.Name)
	}
	return strings.Join(names, "|")
}
