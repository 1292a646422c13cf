// Package driven declares what the core services call out to: stores,
// the file source, normalisers, the extractor, the extraction cache and
// the corpus refresher.
//
// Services refuse to start without DirectoryStore, FileStore, FileSource,
// ExtractionCache, NormaliserRegistry and Extractor. CorpusRefresher,
// SchedulerStore and RecordPipeline may be nil: no refresh is triggered,
// only the last cycle is remembered and records are cached as extracted.
//
// This package imports domain and nothing else from internal/.
package driven
