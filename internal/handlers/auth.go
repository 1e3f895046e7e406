package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/devkrol/sociogram/internal/guard"
	"github.com/devkrol/sociogram/internal/models"
	"github.com/devkrol/sociogram/internal/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// minAge is the youngest allowed account holder
const minAgeYears = 13

// AuthHandler handles registration, login and logout
type AuthHandler struct {
	userRepository repositories.UserRepository
	jwtSecret      string
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo repositories.UserRepository, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		jwtSecret:      jwtSecret,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
}

// Register handles user registration
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return httpError(err)
	}
	if req.BirthDate.After(time.Now().AddDate(-minAgeYears, 0, 0)) {
		return echo.NewHTTPError(http.StatusBadRequest, "You must be at least 13 years old.")
	}

	login := models.NormalizeLogin(req.Login)
	email := models.NormalizeEmail(req.Email)

	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByLogin(ctx, login); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User with given login already exists!")
	} else if !errors.Is(err, guard.ErrNotFound) {
		return httpError(err)
	}
	if _, err := h.userRepository.GetUserByEmail(ctx, email); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User with given email address already exists!")
	} else if !errors.Is(err, guard.ErrNotFound) {
		return httpError(err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return httpError(err)
	}

	user := &models.User{
		Login:     login,
		Email:     email,
		Password:  string(hashedPassword),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: req.BirthDate,
		Bio:       req.Bio,
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return httpError(err)
	}

	log.Println("User", user.Login, "registered in the database.")
	return message(c, http.StatusCreated, "User created successfully.")
}

// Login handles user authentication and issues a JWT
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return httpError(err)
	}

	user, err := h.userRepository.GetUserByLogin(c.Request().Context(), models.NormalizeLogin(req.Login))
	if err != nil {
		if errors.Is(err, guard.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Login or Password!")
		}
		return httpError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Login or Password!")
	}

	token, err := h.generateJWT(user)
	if err != nil {
		return httpError(err)
	}

	log.Println("User", user.Login, "logged in.")
	return c.JSON(http.StatusOK, echo.Map{"data": token, "message": "Logged in successfully."})
}

// Logout acknowledges a logout. Tokens are stateless; the client discards
// its copy.
func (h *AuthHandler) Logout(c echo.Context) error {
	return message(c, http.StatusOK, "Logged out.")
}

// generateJWT generates a JWT token for a given user
func (h *AuthHandler) generateJWT(user *models.User) (string, error) {
	claims := &models.JwtCustomClaims{
		UserID: user.ID.Hex(),
		Login:  user.Login,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}
