package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"onspace/pkg/database"
	"onspace/pkg/middleware"
	"onspace/pkg/response"
	"onspace/pkg/security"
	"onspace/services/auth-service/models"
	"onspace/services/auth-service/utils"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

var db *gorm.DB

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func isValidPassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "A senha deve ter pelo menos 8 caracteres"
	}
	if len(password) > 100 {
		return false, "Senha muito longa"
	}
	return true, ""
}

// isValidCPF checks the Brazilian CPF shape: exactly 11 digits after
// stripping the usual punctuation.
func isValidCPF(cpf string) bool {
	digits := strings.NewReplacer(".", "", "-", "").Replace(cpf)
	if len(digits) != 11 {
		return false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		os.Getenv("POSTGRES_HOST"),
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("POSTGRES_DB"),
		os.Getenv("POSTGRES_PORT"),
	)

	if os.Getenv("POSTGRES_HOST") == "" {
		dsn = "host=localhost user=admin password=password dbname=auth_db port=5434 sslmode=disable TimeZone=UTC"
	}

	var err error
	db, err = database.ConnectPostgres(dsn)
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to database: %v", err)
	}

	log.Println("[INFO] Running Auto Migration...")
	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.Fatalf("[ERROR] Migration failed: %v", err)
	}
	log.Println("[OK] Migration success")

	middleware.RegisterMetrics()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/signup", signupHandler)
	mux.HandleFunc("/api/auth/login", loginHandler)
	mux.Handle("/api/auth/me", middleware.AuthMiddleware(meHandler))
	mux.HandleFunc("/", healthHandler)
	mux.Handle("/metrics", middleware.GetMetricsHandler())

	handler := middleware.TraceMiddleware(
		middleware.MetricsMiddleware(
			middleware.LoggerMiddleware(mux),
		),
	)

	port := os.Getenv("AUTH_PORT")
	if port == "" {
		port = "8081"
	}

	srv := &http.Server{Addr: ":" + port, Handler: handler}

	go func() {
		log.Printf("[INFO] Auth Service running on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[ERROR] Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[INFO] Shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[ERROR] Forced shutdown: %v", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		response.Error(w, http.StatusNotFound, "Not found")
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "OnSpace API is running",
	})
}

func signupHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"fullName"`
		CPF      string `json:"cpf"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Requisição inválida.")
		return
	}

	if input.Email == "" || input.Password == "" || input.FullName == "" {
		response.Error(w, http.StatusBadRequest, "Email, senha e nome completo são obrigatórios.")
		return
	}
	if !isValidEmail(input.Email) {
		response.Error(w, http.StatusBadRequest, "Formato de email inválido.")
		return
	}
	if valid, msg := isValidPassword(input.Password); !valid {
		response.Error(w, http.StatusBadRequest, msg)
		return
	}
	if len(strings.TrimSpace(input.FullName)) < 3 {
		response.Error(w, http.StatusBadRequest, "O nome deve ter pelo menos 3 caracteres.")
		return
	}
	if input.CPF != "" && !isValidCPF(input.CPF) {
		response.Error(w, http.StatusBadRequest, "CPF deve ter 11 dígitos.")
		return
	}

	var existing models.User
	if result := db.Where("email = ?", input.Email).First(&existing); result.Error == nil {
		log.Printf("[WARN] Registration attempt with existing email")
		response.Error(w, http.StatusBadRequest, "Este email já está cadastrado.")
		return
	}

	var cpfEnc string
	var cpfDigest *string
	if input.CPF != "" {
		digest, err := security.DigestString(input.CPF)
		if err != nil {
			log.Printf("[ERROR] Failed to digest CPF: %v", err)
			response.Error(w, http.StatusInternalServerError, "Erro ao criar usuário. Tente novamente.")
			return
		}
		if result := db.Where("cpf_digest = ?", digest).First(&existing); result.Error == nil {
			log.Printf("[WARN] Registration attempt with existing CPF")
			response.Error(w, http.StatusBadRequest, "Este CPF já está cadastrado.")
			return
		}
		cpfEnc, err = security.EncryptString(input.CPF)
		if err != nil {
			log.Printf("[ERROR] Failed to encrypt CPF: %v", err)
			response.Error(w, http.StatusInternalServerError, "Erro ao criar usuário. Tente novamente.")
			return
		}
		cpfDigest = &digest
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		log.Printf("[ERROR] Failed to hash password: %v", err)
		response.Error(w, http.StatusInternalServerError, "Erro ao criar usuário. Tente novamente.")
		return
	}

	newUser := models.User{
		Email:     input.Email,
		Password:  hashedPassword,
		FullName:  strings.TrimSpace(input.FullName),
		CPFEnc:    cpfEnc,
		CPFDigest: cpfDigest,
		Role:      models.RoleCitizen,
	}

	if err := db.Create(&newUser).Error; err != nil {
		log.Printf("[ERROR] Failed to save user to database: %v", err)
		response.Error(w, http.StatusInternalServerError, "Erro ao criar usuário. Tente novamente.")
		return
	}

	log.Printf("[OK] User registered - ID: %s", newUser.ID)

	token, err := utils.GenerateJWT(newUser.ID, newUser.Email, newUser.FullName, newUser.Role)
	if err != nil {
		log.Printf("[ERROR] Failed to generate JWT for user id: %s", newUser.ID)
		response.Error(w, http.StatusInternalServerError, "Erro ao criar usuário. Tente novamente.")
		return
	}

	newUser.CPF = input.CPF
	response.JSON(w, http.StatusCreated, authResponse{User: &newUser, Token: token})
}

func loginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Requisição inválida.")
		return
	}

	if input.Email == "" || input.Password == "" {
		response.Error(w, http.StatusBadRequest, "Email e senha são obrigatórios.")
		return
	}

	var user models.User
	if err := db.Where("email = ?", input.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(w, http.StatusNotFound, "Usuário não encontrado. Verifique o email ou cadastre-se.")
			return
		}
		log.Printf("[ERROR] Failed to look up user: %v", err)
		response.Error(w, http.StatusInternalServerError, "Erro ao fazer login. Tente novamente.")
		return
	}

	// Identity rows mirrored from report submissions carry no password.
	if user.Password == "" {
		response.Error(w, http.StatusBadRequest, "Esta conta não possui senha configurada.")
		return
	}

	if !utils.CheckPasswordHash(input.Password, user.Password) {
		log.Printf("[WARN] Invalid password attempt")
		response.Error(w, http.StatusUnauthorized, "Senha incorreta. Tente novamente.")
		return
	}

	token, err := utils.GenerateJWT(user.ID, user.Email, user.FullName, user.Role)
	if err != nil {
		log.Printf("[ERROR] Failed to generate JWT for user id: %s", user.ID)
		response.Error(w, http.StatusInternalServerError, "Erro ao fazer login. Tente novamente.")
		return
	}

	log.Printf("[OK] User logged in - ID: %s, Role: %s", user.ID, user.Role)

	attachCPF(&user)
	response.JSON(w, http.StatusOK, authResponse{User: &user, Token: token})
}

func meHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		response.Error(w, http.StatusInternalServerError, "Failed to retrieve user context")
		return
	}

	var user models.User
	if err := db.First(&user, "id = ?", claims.UserID).Error; err != nil {
		response.Error(w, http.StatusNotFound, "Usuário não encontrado.")
		return
	}

	attachCPF(&user)
	response.JSON(w, http.StatusOK, &user)
}

// attachCPF decrypts the stored CPF back into the transient field.
func attachCPF(user *models.User) {
	if user.CPFEnc == "" {
		return
	}
	cpf, err := security.DecryptString(user.CPFEnc)
	if err != nil {
		log.Printf("[WARN] Failed to decrypt CPF for user %s: %v", user.ID, err)
		return
	}
	user.CPF = cpf
}
