package mtp

import (
	"context"

	"golang.org/x/text/cases"

	"github.com/marmos91/mtpfs/internal/logger"
)

// nameMatcher compares child names under a session's case policy.
type nameMatcher struct {
	caseSensitive bool
	target        string
	fold          cases.Caser
}

func newNameMatcher(target string, caseSensitive bool) *nameMatcher {
	m := &nameMatcher{caseSensitive: caseSensitive, target: target}
	if !caseSensitive {
		m.fold = cases.Fold()
		m.target = m.fold.String(target)
	}
	return m
}

func (m *nameMatcher) match(name string) bool {
	if m.caseSensitive {
		return name == m.target
	}
	return m.fold.String(name) == m.target
}

// ResolvePath resolves a relative path such as "Music/../Download" starting
// at o. Absolute paths fail with ErrAbsolutePath, an empty path with
// ErrNotFound.
func (o *Object) ResolvePath(ctx context.Context, path string) (*Object, error) {
	obj, err := o.Resolve(ctx, SplitPath(path))
	if err != nil {
		return nil, withPath(err, path)
	}
	return obj, nil
}

// Resolve walks comps one at a time starting at o. Named components are
// matched by a linear scan of the current object's children; the first
// matching child wins, so later siblings with the same name are unreachable.
func (o *Object) Resolve(ctx context.Context, comps []PathComponent) (*Object, error) {
	if len(comps) == 0 {
		return nil, &Error{Code: CodeNotFound, Op: "resolve", ObjectID: o.id, Detail: "empty path"}
	}
	if _, err := o.session(); err != nil {
		return nil, err
	}

	current := o
	for _, comp := range comps {
		var (
			next *Object
			err  error
		)
		switch comp.Kind {
		case Absolute:
			return nil, &Error{Code: CodeAbsolutePath, Op: "resolve", Detail: comp.Name}
		case CurrentDir:
			next = current
		case ParentDir:
			next, err = current.Parent(ctx)
		case Named:
			next, err = current.child(ctx, comp.Name)
		}
		if err != nil {
			return nil, err
		}

		logger.DebugCtx(ctx, "Resolved path component",
			logger.KeyComponent, comp.String(),
			logger.KeyObjectID, next.id,
			logger.KeyContentType, next.contentType.String())
		current = next
	}
	return current, nil
}

// child scans the children of o for the first one named name.
func (o *Object) child(ctx context.Context, name string) (*Object, error) {
	it, err := o.Children(ctx)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	m := newNameMatcher(name, o.content.CaseSensitive())
	for it.Next(ctx) {
		if c := it.Object(); m.match(c.name) {
			return c, nil
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return nil, &Error{Code: CodeNotFound, Op: "resolve", ObjectID: o.id, Detail: "no child named " + name}
}
