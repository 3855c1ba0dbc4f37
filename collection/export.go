package collection

// ExportBundle is the result of resolving a document's import closure for
// export: the primary document, every transitively imported document that
// could be found, and the import paths that resolved to nothing.
type ExportBundle struct {
	Primary  *Collection
	Imported []*Collection
	Dangling []string
}

// ResolveExportClosure walks the primary document's imports transitively
// through the registry and returns the closure. The registry is only read,
// never mutated. Imported documents appear in discovery order; each document
// appears at most once even when imported along several paths.
func ResolveExportClosure(primary *Collection, reg *Registry) ExportBundle {
	bundle := ExportBundle{Primary: primary}
	visited := map[string]bool{primary.Metadata.Namespace: true}
	danglingSeen := map[string]bool{}

	queue := append([]Import(nil), primary.Imports...)
	for len(queue) > 0 {
		imp := queue[0]
		queue = queue[1:]

		target := reg.Get(imp.Path)
		if target == nil {
			if !danglingSeen[imp.Path] {
				danglingSeen[imp.Path] = true
				bundle.Dangling = append(bundle.Dangling, imp.Path)
			}
			continue
		}
		ns := target.Metadata.Namespace
		if visited[ns] {
			continue
		}
		visited[ns] = true
		bundle.Imported = append(bundle.Imported, target)
		queue = append(queue, target.Imports...)
	}
	return bundle
}
