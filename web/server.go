package web

import (
	"net/http"
	"time"

	"github.com/deemkeen/mammut/db"
	"github.com/deemkeen/mammut/federation"
	"github.com/deemkeen/mammut/stream"
	"github.com/deemkeen/mammut/util"
)

// Server bundles the wired components behind the HTTP handlers. Everything
// is injected here once at startup, handlers never reach for singletons.
type Server struct {
	conf      *util.AppConfig
	db        *db.DB
	resolver  *federation.Resolver
	graph     *federation.Graph
	pipeline  *federation.Pipeline
	registry  *federation.Registry
	syncer    *federation.Syncer
	assembler *stream.Assembler

	githubAPI    string
	githubClient *http.Client
}

// Syncer exposes the pull-sync worker for the SSH admin panel.
func (s *Server) Syncer() *federation.Syncer {
	return s.syncer
}

func NewServer(conf *util.AppConfig, database *db.DB) *Server {
	timeout := time.Duration(conf.Conf.PeerTimeout) * time.Second
	resolver := federation.NewResolver(database, conf.ApiBase())
	pipeline := federation.NewPipeline(database, database, database, resolver)
	return &Server{
		conf:      conf,
		db:        database,
		resolver:  resolver,
		graph:     federation.NewGraph(database),
		pipeline:  pipeline,
		registry:  federation.NewRegistry(database, timeout),
		syncer:    federation.NewSyncer(database, pipeline, timeout, conf.Conf.PageSize),
		assembler: stream.NewAssembler(database, database),

		githubAPI:    "https://api.github.com",
		githubClient: &http.Client{Timeout: timeout},
	}
}
