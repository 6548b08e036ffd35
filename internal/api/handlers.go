package api

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/ksred/reservations-migrate/internal/database"
	"github.com/ksred/reservations-migrate/internal/models"
	"github.com/ksred/reservations-migrate/internal/utils"
	"github.com/rs/zerolog"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
}

// MigrationInfo describes a registered migration
type MigrationInfo struct {
	Version string `json:"version"`
	Name    string `json:"name"`
}

// PlanResponse is the dry-run report plus the SQL a real run would execute
type PlanResponse struct {
	Report     *models.Report `json:"report"`
	Statements []string       `json:"statements"`
	Compliant  bool           `json:"compliant"`
}

// PlanErrorResponse is returned when the dry run itself fails, for example
// because a governed column is missing
type PlanErrorResponse struct {
	Error  string         `json:"error"`
	Report *models.Report `json:"report,omitempty"`
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

func (s *Server) listMigrationsHandler(c *gin.Context) {
	out := make([]MigrationInfo, 0, len(s.migrations))
	for _, m := range s.runner(s.logger).Migrations() {
		out = append(out, MigrationInfo{Version: m.Version, Name: m.Name})
	}
	c.JSON(http.StatusOK, gin.H{"migrations": out})
}

func (s *Server) planHandler(c *gin.Context) {
	logger := *utils.FromContext(c.Request.Context())
	if op, ok := getOperatorFromContext(c); ok {
		logger = logger.With().Str("operator", op).Logger()
	}
	runner := s.runner(logger)
	runner.SetDryRun(true)

	report, err := runner.Run(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		status := http.StatusInternalServerError
		if utils.IsNotFoundError(err) {
			status = http.StatusConflict
		}
		c.JSON(status, PlanErrorResponse{Error: err.Error(), Report: report})
		return
	}

	statements := make([]string, 0, report.ActionCount())
	for _, a := range report.Actions() {
		statements = append(statements, a.Statement)
	}

	c.JSON(http.StatusOK, PlanResponse{
		Report:     report,
		Statements: statements,
		Compliant:  report.Compliant(),
	})
}

func (s *Server) describeTableHandler(c *gin.Context) {
	name := c.Param("name")
	if !tableNamePattern.MatchString(name) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid table name"})
		return
	}

	desc, err := s.catalog.DescribeTable(c.Request.Context(), name)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to describe table"})
		return
	}
	if len(desc.Columns) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "table not found"})
		return
	}

	c.JSON(http.StatusOK, desc)
}

func (s *Server) runner(logger zerolog.Logger) *database.MigrationRunner {
	runner := database.NewMigrationRunner(s.catalog, logger)
	runner.Register(s.migrations...)
	return runner
}
