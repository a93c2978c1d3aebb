package deploy

import (
	"context"
	"errors"
	"strconv"

	"github.com/artpar/fndeploy/internal/core/domain"
)

// calls records the order in which collaborators were invoked.
type calls []string

func (c *calls) add(name string) { *c = append(*c, name) }

type fakeGuard struct {
	log *calls
	err error
}

func (g *fakeGuard) CheckCleanTree(ctx context.Context) error {
	g.log.add("guard")
	return g.err
}

// fakeLedger is an in-memory tag namespace for one commit.
type fakeLedger struct {
	log       *calls
	markers   map[string][]string
	queryErr  error
	recordErr error
}

func newFakeLedger(log *calls) *fakeLedger {
	return &fakeLedger{log: log, markers: make(map[string][]string)}
}

func (l *fakeLedger) IsAlreadyDeployed(ctx context.Context, functionName string) (bool, error) {
	l.log.add("ledger.query")
	if l.queryErr != nil {
		return false, l.queryErr
	}
	return len(l.markers[functionName]) > 0, nil
}

func (l *fakeLedger) Record(ctx context.Context, functionName, version string) (domain.VersionMarker, error) {
	l.log.add("ledger.record")
	if ctx.Err() != nil {
		return domain.VersionMarker{}, ctx.Err()
	}
	if l.recordErr != nil {
		return domain.VersionMarker{}, l.recordErr
	}
	l.markers[functionName] = append(l.markers[functionName], version)
	return domain.NewVersionMarker(functionName, version)
}

type fakeBuilder struct {
	log *calls
	err error
}

func (b *fakeBuilder) Build(ctx context.Context) error {
	b.log.add("build")
	return b.err
}

type fakeArtifact struct {
	path       string
	data       []byte
	persisted  string
	closed     bool
	persistErr error
}

func (a *fakeArtifact) Path() string {
	if a.persisted != "" {
		return a.persisted
	}
	return a.path
}

func (a *fakeArtifact) Bytes() ([]byte, error) {
	if a.closed {
		return nil, errors.New("closed")
	}
	return a.data, nil
}

func (a *fakeArtifact) Checksum() (string, error) { return "feedface", nil }

func (a *fakeArtifact) Persist(dst string) error {
	if a.persistErr != nil {
		return a.persistErr
	}
	a.persisted = dst
	return nil
}

func (a *fakeArtifact) Close() error {
	a.closed = true
	return nil
}

type fakePackager struct {
	log      *calls
	err      error
	bundles  []string
	artifact *fakeArtifact
}

func (p *fakePackager) Package(ctx context.Context, bundlePath string) (Artifact, error) {
	p.log.add("package")
	p.bundles = append(p.bundles, bundlePath)
	if p.err != nil {
		return nil, p.err
	}
	p.artifact = &fakeArtifact{path: "/tmp/fndeploy-1.zip", data: []byte("zip:" + bundlePath)}
	return p.artifact, nil
}

// fakePublisher hands out increasing version numbers.
type fakePublisher struct {
	log       *calls
	next      int
	err       error
	uploads   [][]byte
	onPublish func()
}

func (p *fakePublisher) Publish(ctx context.Context, functionName string, artifact []byte) (domain.PublishedFunction, error) {
	p.log.add("publish")
	p.uploads = append(p.uploads, artifact)
	if p.err != nil {
		return domain.PublishedFunction{}, p.err
	}
	if p.onPublish != nil {
		p.onPublish()
	}
	p.next++
	return domain.PublishedFunction{
		FunctionName: functionName,
		Version:      strconv.Itoa(p.next),
		CodeSha256:   "sha",
	}, nil
}

type fakeCollector struct {
	log    *calls
	report domain.CollectionReport
	err    error
	keeps  []string
	ctxErr error
}

func (c *fakeCollector) Collect(ctx context.Context, functionName, keepVersion string) (domain.CollectionReport, error) {
	c.log.add("collect")
	c.keeps = append(c.keeps, keepVersion)
	c.ctxErr = ctx.Err()
	return c.report, c.err
}

