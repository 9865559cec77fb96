package cmd

import (
	"flag"
	"time"

	"github.com/ctfops-io/scoring-api/pkg/api"
	"github.com/ctfops-io/scoring-api/pkg/auth"
	"github.com/ctfops-io/scoring-api/pkg/config"
	"github.com/ctfops-io/scoring-api/pkg/db"
	"github.com/ctfops-io/scoring-api/pkg/db/sqlite"
	"github.com/ctfops-io/scoring-api/pkg/lab"
	"github.com/ctfops-io/scoring-api/pkg/leaderboard"
	"github.com/ctfops-io/scoring-api/pkg/logging"
	"github.com/ctfops-io/scoring-api/pkg/ratelimit"
	"github.com/ctfops-io/scoring-api/pkg/scoring"
	log "github.com/sirupsen/logrus"
)

var (
	hostname     string
	port         int
	dbPath       string
	labsPath     string
	loggingLevel string
)

func Run() {
	flag.StringVar(&hostname, "hostname", "localhost",
		"location at which the API shall be served.")
	flag.IntVar(&port, "port", 9001,
		"port on which the API shall be served.")
	flag.StringVar(&dbPath, "db-path", ".db",
		"path to the directory with the scoring db.")
	flag.StringVar(&labsPath, "labs", "",
		"path to an optional JSON file with the lab file trees.")
	flag.StringVar(&loggingLevel, "level", "info",
		"level of logging.")
	flag.Parse()

	if port <= 0 || port > 65536 {
		handleCLIError(errorf("the port must be between 1 and 65536, but was %d", port))
	}

	err := logging.InitLogging(loggingLevel)
	handleCLIError(err)

	cfg, err := config.LoadFromEnv()
	handleCLIError(err)

	sqliteDB, err := sqlite.NewSQLiteDB(dbPath)
	handleProgramError(err)
	defer sqliteDB.Close()

	authenticator, err := auth.NewEnvironmentBasedAuthentication()
	handleProgramError(err)

	sessions, err := auth.NewSessionManager(cfg.SessionSecret,
		time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	handleProgramError(err)

	labs, err := loadLabs(labsPath)
	handleProgramError(err)

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		Enabled:           cfg.RateLimitEnabled,
		MaxAttempts:       cfg.RateLimitMaxAttempts,
		WindowSeconds:     cfg.RateLimitWindowSeconds,
		LockSeconds:       cfg.RateLimitLockSeconds,
		MaxBackoffSeconds: cfg.MaxBackoffSeconds(),
	}, sqliteDB.Observer())

	orchestrator := scoring.NewOrchestrator(sqliteDB, limiter, scoring.AwardConfig{
		FirstSolverBonusEnabled: cfg.FirstSolverBonusEnabled,
		BonusMode:               cfg.FirstSolverBonusMode,
		BonusValue:              cfg.FirstSolverBonusValue,
	})

	events := make(chan db.ObserverMessage, 64)
	sqliteDB.Observer().Sub(events)
	go logAuditEvents(events)

	err = api.Serve(hostname, port, &api.Services{
		DB:           sqliteDB,
		Orchestrator: orchestrator,
		Catalog:      scoring.NewCatalog(sqliteDB),
		Leaderboard:  leaderboard.NewAggregator(sqliteDB),
		Participants: auth.NewService(sqliteDB, sessions),
		Sessions:     sessions,
		Labs:         labs,
		Admin:        authenticator,
	})
	handleProgramError(err)
}

// logAuditEvents drains the audit event sink into the structured log. The
// sink is fire-and-forget; a slow or failing log never reaches back into
// the submission pipeline.
func logAuditEvents(events <-chan db.ObserverMessage) {
	for msg := range events {
		log.WithFields(log.Fields(msg.Fields)).Debug("audit event")
	}
}

// loadLabs reads the lab file trees from the given JSON file, mapping
// challenge slugs to file paths to contents. An empty path yields a runner
// without any labs.
func loadLabs(path string) (lab.Runner, error) {
	if path == "" {
		return lab.NewStaticRunner(nil), nil
	}
	labs, err := readLabsFile(path)
	if err != nil {
		return nil, err
	}
	return lab.NewStaticRunner(labs), nil
}
