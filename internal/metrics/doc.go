// Package metrics provides observability hooks for site generation.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so call sites never need nil checks:
//
//	gen := generator.New(root, parser, generator.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// PrometheusRecorder registers its collectors on the supplied registry. The
// CLI writes the registry to a node-exporter textfile after a build.
package metrics
