package api

import (
	"fmt"

	"github.com/ctfops-io/scoring-api/pkg/auth"
	"github.com/ctfops-io/scoring-api/pkg/db"
	"github.com/ctfops-io/scoring-api/pkg/lab"
	"github.com/ctfops-io/scoring-api/pkg/leaderboard"
	"github.com/ctfops-io/scoring-api/pkg/logging"
	"github.com/ctfops-io/scoring-api/pkg/scoring"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const RootPath = "scoring"

// getPath assembles the path for api calls given the relative path.
// This functions returns the complete path that can be passed to the
// gin framework.
func getPath(relativePath string) string {
	return fmt.Sprintf("%s/%s", RootPath, relativePath)
}

// Services bundles the components the api exposes. All of them are
// constructed once at startup and passed by reference.
type Services struct {
	DB           db.DB
	Orchestrator *scoring.Orchestrator
	Catalog      *scoring.Catalog
	Leaderboard  *leaderboard.Aggregator
	Participants *auth.Service
	Sessions     *auth.SessionManager
	Labs         lab.Runner
	Admin        auth.Authenticator
}

// routes returns a list of all routes for this api.
func routes(services *Services) []func(router *gin.Engine) {
	return []func(*gin.Engine){
		heartbeat,
		postRegister(services),
		postLogin(services),
		postSubmission(services),
		postLabCommand(services),
		getTrackChallenges(services),
		getGlobalLeaderboard(services),
		getTrackLeaderboard(services),
		postTrack(services),
		postChallenge(services),
		putChallengeFlag(services),
		putChallengePublished(services),
		getRecentAttempts(services),
	}
}

// Serve starts the API at the given hostname and on the given port.
func Serve(hostname string, port int, services *Services) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(logging.GinLoggingHook(), gin.Recovery())
	_ = router.SetTrustedProxies(nil)
	for _, function := range routes(services) {
		function(router)
	}
	address := fmt.Sprintf("%s:%d", hostname, port)
	log.Infof("starting the API at address '%s'", address)
	return router.Run(address)
}
