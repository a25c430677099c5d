package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"onspace/pkg/middleware"
	"onspace/pkg/response"
	"onspace/pkg/storage"

	"github.com/joho/godotenv"
)

const maxUploadSize = 10 << 20 // 10 MiB

var store *storage.ObjectStore

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}
	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	if accessKey == "" {
		accessKey = "minioadmin"
	}
	secretKey := os.Getenv("MINIO_SECRET_KEY")
	if secretKey == "" {
		secretKey = "minioadmin"
	}
	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "report-photos"
	}
	publicURL := os.Getenv("MINIO_PUBLIC_URL")
	if publicURL == "" {
		publicURL = "http://localhost:9000"
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	var err error
	store, err = storage.ConnectMinio(endpoint, accessKey, secretKey, bucket, publicURL, useSSL)
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to MinIO: %v", err)
	}
	log.Println("[OK] Connected to MinIO")

	middleware.RegisterMetrics()

	mux := http.NewServeMux()
	mux.Handle("/api/uploads", middleware.AuthMiddleware(uploadHandler))
	mux.HandleFunc("/", healthHandler)
	mux.Handle("/metrics", middleware.GetMetricsHandler())

	handler := middleware.TraceMiddleware(
		middleware.MetricsMiddleware(
			middleware.LoggerMiddleware(mux),
		),
	)

	port := os.Getenv("MEDIA_PORT")
	if port == "" {
		port = "8083"
	}

	srv := &http.Server{Addr: ":" + port, Handler: handler}

	go func() {
		log.Printf("[INFO] Media Service running on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[ERROR] Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[INFO] Shutting down media service...")

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

func uploadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		response.Error(w, http.StatusBadRequest, "Arquivo muito grande ou requisição inválida.")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Campo 'photo' é obrigatório.")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		response.Error(w, http.StatusBadRequest, "Apenas imagens são aceitas.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	imageURL, err := store.SavePhoto(ctx, header.Filename, contentType, file, header.Size)
	if err != nil {
		log.Printf("[ERROR] Failed to store photo: %v", err)
		response.Error(w, http.StatusInternalServerError, "Erro ao fazer upload da foto.")
		return
	}

	log.Printf("[OK] Photo stored - %s", imageURL)
	response.JSON(w, http.StatusCreated, map[string]string{"imageUrl": imageURL})
}
