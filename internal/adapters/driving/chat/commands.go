package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/libria-search/libria/internal/core/domain"
)

// action is one resolved user request, executed outside the UI loop.
type action struct {
	fn   func(ctx context.Context, p Ports) (string, error)
	quit bool
}

// handler runs one menu entry with the remainder of the input line.
type handler func(args string) action

// handlers maps every accepted token to its menu entry. Numbers come
// from the on-screen menu; word aliases accept the natural spelling.
var handlers = map[string]handler{
	"1": keywordAction, "search": keywordAction, "keyword": keywordAction,
	"2": vectorAction, "vector": vectorAction,
	"3": hybridAction, "hybrid": hybridAction,
	"4": filteredAction, "filter": filteredAction, "filtered": filteredAction,
	"5": listAction, "list": listAction,
	"6": statsAction, "stats": statsAction,
	"get": getAction,
	"7": quitAction, "quit": quitAction, "exit": quitAction, "q": quitAction, "bye": quitAction,
	"help": helpAction, "?": helpAction, "menu": helpAction,
}

// dispatch resolves an input line. The first token selects a menu
// entry; anything else runs as a quick keyword search.
func dispatch(line string) action {
	token, rest, _ := strings.Cut(line, " ")
	if h, ok := handlers[strings.ToLower(token)]; ok {
		return h(strings.TrimSpace(rest))
	}
	return quickSearchAction(line)
}

func menuText() string {
	return strings.Join([]string{
		"  1. search <query>          keyword search",
		"  2. vector <query>          semantic search",
		"  3. hybrid <query>          keyword + semantic",
		"  4. filter <field=value> [query]",
		"  5. list                    list indexed documents",
		"  6. stats                   index statistics",
		"  get <id>                   show one document",
		"  7. quit",
		"",
		"Anything else runs a quick keyword search (top 3).",
	}, "\n")
}

func helpAction(string) action {
	return action{fn: func(context.Context, Ports) (string, error) {
		return menuText(), nil
	}}
}

func quitAction(string) action {
	return action{quit: true}
}

func keywordAction(args string) action {
	return searchAction(args, "search", func(ctx context.Context, p Ports, q string) ([]domain.SearchResult, error) {
		return p.Search.Keyword(ctx, q, 0)
	})
}

func vectorAction(args string) action {
	return searchAction(args, "vector", func(ctx context.Context, p Ports, q string) ([]domain.SearchResult, error) {
		return p.Search.Vector(ctx, q, 0)
	})
}

func hybridAction(args string) action {
	return searchAction(args, "hybrid", func(ctx context.Context, p Ports, q string) ([]domain.SearchResult, error) {
		return p.Search.Hybrid(ctx, q, 0)
	})
}

func quickSearchAction(query string) action {
	return searchAction(query, "search", func(ctx context.Context, p Ports, q string) ([]domain.SearchResult, error) {
		return p.Search.Keyword(ctx, q, quickSearchTop)
	})
}

// searchAction wraps a retrieval mode with usage checking and result
// rendering.
func searchAction(query, usage string, run func(context.Context, Ports, string) ([]domain.SearchResult, error)) action {
	return action{fn: func(ctx context.Context, p Ports) (string, error) {
		if strings.TrimSpace(query) == "" {
			return fmt.Sprintf("usage: %s <query>", usage), nil
		}
		results, err := run(ctx, p, query)
		if err != nil {
			return "", err
		}
		return renderResults(p, results), nil
	}}
}

func filteredAction(args string) action {
	return action{fn: func(ctx context.Context, p Ports) (string, error) {
		filter, query, ok := parseFilterInput(args)
		if !ok {
			return "usage: filter <field=value> [query]", nil
		}

		results, err := p.Search.Filtered(ctx, query, filter, 0)
		if err != nil {
			return "", err
		}
		return renderResults(p, results), nil
	}}
}

// parseFilterInput splits `field=value [query]`. Quoted values may
// contain spaces; unquoted values end at the first space.
func parseFilterInput(args string) (domain.FieldFilter, string, bool) {
	field, rest, ok := strings.Cut(args, "=")
	if !ok || strings.TrimSpace(field) == "" {
		return domain.FieldFilter{}, "", false
	}
	field = strings.TrimSpace(field)

	if rest != "" && (rest[0] == '"' || rest[0] == '\'') {
		quote := rest[0]
		if end := strings.IndexByte(rest[1:], quote); end >= 0 {
			value := rest[1 : 1+end]
			query := strings.TrimSpace(rest[2+end:])
			return domain.FieldFilter{Field: field, Value: value}, query, true
		}
	}

	value, query, _ := strings.Cut(rest, " ")
	return domain.FieldFilter{Field: field, Value: value}, strings.TrimSpace(query), true
}

func getAction(args string) action {
	return action{fn: func(ctx context.Context, p Ports) (string, error) {
		id := strings.TrimSpace(args)
		if id == "" {
			return "usage: get <id>", nil
		}

		doc, err := p.Search.Get(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Sprintf("No document with ID %q.", id), nil
		}
		if err != nil {
			return "", err
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%s  %s\n", doc.ID, doc.ProductName)
		fmt.Fprintf(&b, "    File: %s\n", doc.Filename)
		if doc.DocumentURL != "" {
			fmt.Fprintf(&b, "    URL: %s\n", doc.DocumentURL)
		}
		fmt.Fprintf(&b, "    Content: %d characters", doc.ContentLength)
		return b.String(), nil
	}}
}

func listAction(string) action {
	return action{fn: func(ctx context.Context, p Ports) (string, error) {
		results, err := p.Search.List(ctx, 0)
		if err != nil {
			return "", err
		}
		if len(results) == 0 {
			return "The index is empty.", nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%d document(s):\n", len(results))
		for _, r := range results {
			fmt.Fprintf(&b, "  %-8s %-24s %s\n", r.Document.ID, r.Document.Filename, r.Document.ProductName)
		}
		return strings.TrimRight(b.String(), "\n"), nil
	}}
}

func statsAction(string) action {
	return action{fn: func(ctx context.Context, p Ports) (string, error) {
		stats, err := p.Admin.Stats(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Index %s: %d documents, %d fields, vector search %v",
			stats.IndexName, stats.DocumentCount, stats.FieldCount, stats.VectorEnabled), nil
	}}
}

// renderResults shapes results through the presenter into a transcript
// block.
func renderResults(p Ports, results []domain.SearchResult) string {
	display := p.Presenter.FormatAll(results)
	if len(display) == 0 {
		return "No results found."
	}

	var b strings.Builder
	for _, d := range display {
		header := d.Filename
		if header == "" {
			header = d.ID
		}
		if d.Score != "" {
			fmt.Fprintf(&b, "[%d] %s (score %s)\n", d.Rank, header, d.Score)
		} else {
			fmt.Fprintf(&b, "[%d] %s\n", d.Rank, header)
		}
		if d.ProductName != "" {
			fmt.Fprintf(&b, "    Product: %s\n", d.ProductName)
		}
		for _, snippet := range d.Snippets {
			fmt.Fprintf(&b, "    %s\n", snippet)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
