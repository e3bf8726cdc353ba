package query

import (
	"fmt"
	"sort"
	"strings"

	"librarian/internal/store"
)

// retrieveEnumeration lists functions, modules, or files deterministically
// sorted, bypassing ranking entirely (spec §4.4 step 2).
func retrieveEnumeration(st *store.Store, intent string) ([]store.ContextPack, error) {
	lower := strings.ToLower(intent)
	switch {
	case strings.Contains(lower, "module"):
		modules, err := st.GetModules()
		if err != nil {
			return nil, err
		}
		sort.Slice(modules, func(i, j int) bool { return modules[i].Path < modules[j].Path })
		packs := make([]store.ContextPack, 0, len(modules))
		for _, m := range modules {
			packs = append(packs, modulePack(m))
		}
		return packs, nil
	case strings.Contains(lower, "file"):
		files, err := st.GetFiles(store.FileFilter{}, "path", 0)
		if err != nil {
			return nil, err
		}
		packs := make([]store.ContextPack, 0, len(files))
		for _, f := range files {
			packs = append(packs, filePack(f))
		}
		return packs, nil
	default:
		funcs, err := st.GetFunctions(store.FunctionFilter{})
		if err != nil {
			return nil, err
		}
		sort.Slice(funcs, func(i, j int) bool {
			if funcs[i].File != funcs[j].File {
				return funcs[i].File < funcs[j].File
			}
			return funcs[i].StartLine < funcs[j].StartLine
		})
		packs := make([]store.ContextPack, 0, len(funcs))
		for _, fn := range funcs {
			packs = append(packs, functionPack(fn))
		}
		return packs, nil
	}
}

// retrieveStructural answers structural queries about a named function X
// by returning the functions that have a call edge into X, deterministically
// sorted (spec §4.4 step 2). Only call edges are walked; import edges are not.
func retrieveStructural(st *store.Store, intent string) ([]store.ContextPack, error) {
	target := structuralTarget(intent)
	if target == "" {
		return nil, nil
	}
	funcs, err := st.GetFunctions(store.FunctionFilter{NameLike: target})
	if err != nil {
		return nil, err
	}
	var calleeIDs []string
	for _, fn := range funcs {
		if strings.EqualFold(fn.Name, target) {
			calleeIDs = append(calleeIDs, fn.ID)
		}
	}
	if len(calleeIDs) == 0 {
		return nil, nil
	}
	edges, err := st.GetGraphEdges(store.EdgeFilter{
		EdgeKinds: []store.EdgeKind{store.EdgeCalls},
		ToIDs:     calleeIDs,
	})
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var packs []store.ContextPack
	for _, e := range edges {
		if seen[e.FromID] {
			continue
		}
		seen[e.FromID] = true
		callerFuncs, err := st.GetFunctions(store.FunctionFilter{})
		if err != nil {
			return nil, err
		}
		for _, fn := range callerFuncs {
			if fn.ID == e.FromID {
				packs = append(packs, functionPack(fn))
				break
			}
		}
	}
	sort.Slice(packs, func(i, j int) bool { return packs[i].PackID < packs[j].PackID })
	return packs, nil
}

// retrieveGeneral gathers candidate Context Packs for semantic/lexical
// ranking: persisted function_context packs first, falling back to
// synthesizing ephemeral ones from the store's functions and modules.
func retrieveGeneral(st *store.Store) ([]store.ContextPack, error) {
	funcs, err := st.GetFunctions(store.FunctionFilter{})
	if err != nil {
		return nil, err
	}
	modules, err := st.GetModules()
	if err != nil {
		return nil, err
	}

	var packs []store.ContextPack
	for _, fn := range funcs {
		persisted, err := st.GetContextPacks(fn.ID)
		if err != nil {
			return nil, err
		}
		if len(persisted) > 0 {
			packs = append(packs, persisted...)
		} else {
			packs = append(packs, functionPack(fn))
		}
	}
	for _, m := range modules {
		packs = append(packs, modulePack(m))
	}
	return packs, nil
}

func functionPack(fn store.Function) store.ContextPack {
	return store.ContextPack{
		PackID:       "func:" + fn.ID,
		PackType:     "function_context",
		TargetID:     fn.ID,
		Summary:      fmt.Sprintf("%s defined in %s (lines %d-%d)", fn.Signature, fn.File, fn.StartLine, fn.EndLine),
		KeyFacts:     []string{fn.Signature},
		RelatedFiles: []string{fn.File},
		Confidence:   fn.Confidence,
	}
}

func modulePack(m store.Module) store.ContextPack {
	return store.ContextPack{
		PackID:       "module:" + m.Path,
		PackType:     "module_context",
		TargetID:     m.Path,
		Summary:      fmt.Sprintf("module %s exports: %s", m.Path, strings.Join(m.Exports, ", ")),
		KeyFacts:     m.Exports,
		RelatedFiles: []string{m.Path},
		Confidence:   0.7,
	}
}

func filePack(f store.File) store.ContextPack {
	return store.ContextPack{
		PackID:       "file:" + f.Path,
		PackType:     "file_context",
		TargetID:     f.Path,
		Summary:      fmt.Sprintf("file %s (%s)", f.Path, f.Category),
		RelatedFiles: []string{f.Path},
		Confidence:   0.6,
	}
}
