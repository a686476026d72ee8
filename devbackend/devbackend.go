// Package devbackend is an in-memory implementation of the planning backend
// contract, for local development and integration tests. It mirrors the real
// backend's surface — /auth/register, /auth/login, /auth/me, /accounts/,
// /goals/ — including its atomic registration semantics: a rejected request
// creates no user, profile, or goal record.
package devbackend

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/safirihq/onboard/risk"
)

type user struct {
	Email        string
	Password     string
	Role         string
	DOB          string
	NationalID   string
	KRAPin       string
	AnnualIncome float64
	Dependents   int
	RiskScore    int
	RiskLevel    string
	Accounts     []Account
	Goals        []GoalRecord
}

// Account mirrors the /accounts/ resource.
type Account struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Institution string  `json:"institution,omitempty"`
	Type        string  `json:"type,omitempty"`
	Balance     float64 `json:"balance"`
}

// GoalRecord mirrors the /goals/ resource.
type GoalRecord struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	TargetAmount float64 `json:"targetAmount"`
	TimeHorizon  int     `json:"timeHorizon"`
}

// Server holds the in-memory state behind the contract.
type Server struct {
	mu     sync.Mutex
	users  map[string]*user // keyed by email
	secret []byte
	quest  risk.Questionnaire
	ttl    time.Duration
}

// New creates a dev backend signing tokens with the given secret.
func New(secret string) *Server {
	return &Server{
		users:  make(map[string]*user),
		secret: []byte(secret),
		quest:  risk.V1(),
		ttl:    time.Hour,
	}
}

// Router builds the gin handler implementing the contract.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	auth := r.Group("/auth")
	{
		auth.POST("/register", s.register)
		auth.POST("/login", s.login)
		auth.GET("/me", s.me)
	}

	accounts := r.Group("/accounts", s.requireAuth)
	{
		accounts.GET("/", s.listAccounts)
		accounts.POST("/", s.createAccount)
		accounts.PUT("/:id", s.updateAccount)
		accounts.DELETE("/:id", s.deleteAccount)
	}

	goals := r.Group("/goals", s.requireAuth)
	{
		goals.GET("/", s.listGoals)
		goals.POST("/", s.createGoal)
	}

	return r
}

type registerBody struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	DOB          string `json:"dob" binding:"required"`
	NationalID   string `json:"nationalId" binding:"required"`
	KRAPin       string `json:"kra_pin"`
	AnnualIncome float64 `json:"annual_income"`
	Dependents   int     `json:"dependents"`
	Role         string  `json:"role"`
	Goals        struct {
		Name         string  `json:"name"`
		TargetAmount float64 `json:"targetAmount"`
		TimeHorizon  int     `json:"timeHorizon"`
	} `json:"goals"`
	Questionnaire []int `json:"questionnaire" binding:"required"`
}

func (s *Server) register(c *gin.Context) {
	var body registerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	// Score first: registration is all-or-nothing, so nothing is written
	// until every part of the payload has been accepted.
	result, err := s.quest.Score(body.Questionnaire)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"detail": "invalid questionnaire",
			"errors": map[string]string{"questionnaire": err.Error()},
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[body.Email]; exists {
		c.JSON(http.StatusConflict, gin.H{"detail": "email already registered"})
		return
	}

	role := body.Role
	if role == "" {
		role = "individual"
	}

	u := &user{
		Email:        body.Email,
		Password:     body.Password,
		Role:         role,
		DOB:          body.DOB,
		NationalID:   body.NationalID,
		KRAPin:       body.KRAPin,
		AnnualIncome: body.AnnualIncome,
		Dependents:   body.Dependents,
		RiskScore:    result.Score,
		RiskLevel:    string(result.Level),
	}
	if body.Goals.TargetAmount > 0 {
		u.Goals = append(u.Goals, GoalRecord{
			ID:           uuid.NewString(),
			Name:         body.Goals.Name,
			TargetAmount: body.Goals.TargetAmount,
			TimeHorizon:  body.Goals.TimeHorizon,
		})
	}
	s.users[body.Email] = u

	token, err := s.issueToken(body.Email)
	if err != nil {
		delete(s.users, body.Email)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "token issue failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"risk_score":   result.Score,
		"risk_level":   string(result.Level),
	})
}

func (s *Server) login(c *gin.Context) {
	email := c.PostForm("username")
	password := c.PostForm("password")

	s.mu.Lock()
	u, ok := s.users[email]
	s.mu.Unlock()

	if !ok || u.Password != password {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "incorrect email or password"})
		return
	}

	token, err := s.issueToken(email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "token issue failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func (s *Server) me(c *gin.Context) {
	u, ok := s.authedUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email": u.Email,
		"role":  u.Role,
		"profile": gin.H{
			"email":         u.Email,
			"dob":           u.DOB,
			"annual_income": u.AnnualIncome,
			"dependents":    u.Dependents,
			"risk_score":    u.RiskScore,
			"risk_level":    u.RiskLevel,
		},
	})
}

func (s *Server) requireAuth(c *gin.Context) {
	if _, ok := s.authedUser(c); !ok {
		c.Abort()
	}
}

func (s *Server) authedUser(c *gin.Context) (*user, bool) {
	header := c.GetHeader("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "not authenticated"})
		return nil, false
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid token"})
		return nil, false
	}

	email, _ := claims["sub"].(string)

	s.mu.Lock()
	u, ok := s.users[email]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "user not found"})
		return nil, false
	}
	return u, true
}

func (s *Server) issueToken(email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": email,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) listAccounts(c *gin.Context) {
	u, _ := s.authedUser(c)
	s.mu.Lock()
	out := append([]Account(nil), u.Accounts...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) createAccount(c *gin.Context) {
	u, _ := s.authedUser(c)

	var acct Account
	if err := c.ShouldBindJSON(&acct); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	acct.ID = uuid.NewString()

	s.mu.Lock()
	u.Accounts = append(u.Accounts, acct)
	s.mu.Unlock()

	c.JSON(http.StatusCreated, acct)
}

func (s *Server) updateAccount(c *gin.Context) {
	u, _ := s.authedUser(c)
	id := c.Param("id")

	var acct Account
	if err := c.ShouldBindJSON(&acct); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	acct.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range u.Accounts {
		if u.Accounts[i].ID == id {
			u.Accounts[i] = acct
			c.JSON(http.StatusOK, acct)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "account not found"})
}

func (s *Server) deleteAccount(c *gin.Context) {
	u, _ := s.authedUser(c)
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range u.Accounts {
		if u.Accounts[i].ID == id {
			u.Accounts = append(u.Accounts[:i], u.Accounts[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "account not found"})
}

func (s *Server) listGoals(c *gin.Context) {
	u, _ := s.authedUser(c)
	s.mu.Lock()
	out := append([]GoalRecord(nil), u.Goals...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) createGoal(c *gin.Context) {
	u, _ := s.authedUser(c)

	var goal GoalRecord
	if err := c.ShouldBindJSON(&goal); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	goal.ID = uuid.NewString()

	s.mu.Lock()
	u.Goals = append(u.Goals, goal)
	s.mu.Unlock()

	c.JSON(http.StatusCreated, goal)
}
