package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"feedback-insights-demo/backend/pkg/logger"
)

// Status is the health state of one component.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Component is the reported state of one checked dependency.
type Component struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Check probes one dependency and reports its state.
type Check func() (Status, string, error)

// Checker runs registered checks on a fixed period and serves the latest
// snapshot over HTTP. The database is the only critical component; a
// degraded classifier keeps the service answering 200.
type Checker struct {
	checks      map[string]Check
	components  map[string]*Component
	checkPeriod time.Duration
	mutex       sync.RWMutex
	log         *logger.Logger
}

func NewChecker(log *logger.Logger, checkPeriod time.Duration) *Checker {
	checker := &Checker{
		checks:      make(map[string]Check),
		components:  make(map[string]*Component),
		checkPeriod: checkPeriod,
		log:         log,
	}
	checker.RegisterCheck("self", func() (Status, string, error) {
		return StatusUp, "health checker is running", nil
	})
	return checker
}

func (c *Checker) RegisterCheck(name string, check Check) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.checks[name] = check
	c.components[name] = &Component{
		Name:        name,
		Status:      StatusDown,
		Description: "not checked yet",
	}
}

// RegisterDatabaseCheck wires the postgres connectivity probe.
func (c *Checker) RegisterDatabaseCheck(checkFunc func() error) {
	c.RegisterCheck("database", func() (Status, string, error) {
		if err := checkFunc(); err != nil {
			return StatusDown, "database connection failed", err
		}
		return StatusUp, "database connection is established", nil
	})
}

// RegisterClassifierCheck reports whether the classifier gateway is
// configured. It deliberately avoids calling the paid API; a missing key
// degrades theming but leaves intake working.
func (c *Checker) RegisterClassifierCheck(configured func() bool) {
	c.RegisterCheck("classifier", func() (Status, string, error) {
		if !configured() {
			return StatusDegraded, "classifier API key not configured", nil
		}
		return StatusUp, "classifier gateway is configured", nil
	})
}

func (c *Checker) RunChecks() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for name, check := range c.checks {
		status, description, err := check()

		component := c.components[name]
		component.Status = status
		component.Description = description
		component.LastChecked = time.Now()

		if err != nil {
			component.Error = err.Error()
			c.log.Error("health check failed",
				"component", name,
				"status", string(status),
				"error", err.Error(),
			)
		} else {
			component.Error = ""
		}
	}
}

// Start runs checks immediately, then on the configured period.
func (c *Checker) Start() {
	go func() {
		c.RunChecks()

		ticker := time.NewTicker(c.checkPeriod)
		defer ticker.Stop()

		for range ticker.C {
			c.RunChecks()
		}
	}()
}

func (c *Checker) GetStatus() map[string]*Component {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make(map[string]*Component, len(c.components))
	for k, v := range c.components {
		componentCopy := *v
		result[k] = &componentCopy
	}
	return result
}

func (c *Checker) IsSystemHealthy() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	for _, component := range c.components {
		if component.Status == StatusDown && component.Name == "database" {
			return false
		}
	}
	return true
}

// HTTPHandler serves the snapshot; 503 when a critical component is down.
func (c *Checker) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := c.GetStatus()

		w.Header().Set("Content-Type", "application/json")
		code := http.StatusOK
		overall := "ok"
		if !c.IsSystemHealthy() {
			code = http.StatusServiceUnavailable
			overall = "unavailable"
		}
		w.WriteHeader(code)

		response := map[string]interface{}{
			"status":     overall,
			"timestamp":  time.Now(),
			"components": status,
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			c.log.Error("failed to encode health response", "error", err.Error())
		}
	}
}
