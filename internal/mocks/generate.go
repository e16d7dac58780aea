// Package mocks provides mock implementations of the pipeline ports for tests.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the interfaces in internal/ports.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	finder := mocks.NewMockJobFinder(ctrl)
//	finder.EXPECT().FindCompleted(gomock.Any(), "matter-1").Return(job, true, nil)
package mocks

// Generate mocks for the export pipeline ports:
// JobFinder, ArchiveFetcher, ArchiveExtractor, Publisher, NameDeriver, RunLock
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=pipeline_ports_mock.go github.com/Liad-hossain/test-voice-export/internal/ports JobFinder,ArchiveFetcher,ArchiveExtractor,Publisher,NameDeriver,RunLock
