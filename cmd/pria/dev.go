package main

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/recera/pria/internal/jsrt"
)

type devServer struct {
	project  *project
	watcher  *fsnotify.Watcher
	debounce time.Duration

	wsClients map[*websocket.Conn]bool
	wsMutex   sync.RWMutex
	upgrader  websocket.Upgrader

	buildMutex sync.RWMutex
	assets     map[string]asset
	buildErr   error

	static http.Handler
}

func newDevCommand() *cobra.Command {
	var port int
	var host string
	var cwd string

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the development server",
		Long: `Serves the compiled app from memory, recompiles changed components and
reloads connected browsers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cwd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				p.config.Dev.Port = port
			}
			if cmd.Flags().Changed("host") {
				p.config.Dev.Host = host
			}
			return runDev(p)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 5173, "Port to run the dev server on")
	cmd.Flags().StringVar(&host, "host", "localhost", "Host to bind the dev server to")
	cmd.Flags().StringVar(&cwd, "cwd", ".", "Project directory")

	return cmd
}

func newDevServer(p *project) *devServer {
	return &devServer{
		project:   p,
		debounce:  time.Duration(p.config.Dev.DebounceMS) * time.Millisecond,
		wsClients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in dev
			},
		},
		static: http.FileServer(http.Dir(p.publicDir())),
	}
}

func runDev(p *project) error {
	log.Println("🚀 Starting pria dev server...")

	server := newDevServer(p)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	server.watcher = watcher

	if err := server.setupWatcher(); err != nil {
		return fmt.Errorf("failed to setup watcher: %w", err)
	}
	go server.watchFiles()

	if err := server.rebuild(); err != nil {
		log.Printf("❌ Initial build failed:\n%s\n", describe(err, true))
	} else {
		log.Println("✅ Initial build succeeded")
	}

	addr := fmt.Sprintf("%s:%d", p.config.Dev.Host, p.config.Dev.Port)
	log.Printf("✨ Dev server running at http://%s\n", addr)

	srv := &http.Server{
		Addr:    addr,
		Handler: server.routes(),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("\n🛑 Shutting down dev server...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *devServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(jsrt.ReloadPath, s.handleWebSocket)
	mux.HandleFunc("/", s.serveApp)
	return mux
}

// rebuild renders the app into memory. A failed build keeps serving
// the error until the next successful one.
func (s *devServer) rebuild() error {
	assets, err := s.project.render(jsrt.ReloadPath)

	s.buildMutex.Lock()
	defer s.buildMutex.Unlock()
	s.buildErr = err
	if err == nil {
		s.assets = assets
	}
	return err
}

func (s *devServer) serveApp(w http.ResponseWriter, r *http.Request) {
	urlPath := r.URL.Path
	if urlPath == "/" {
		urlPath = "/index.html"
	}

	s.buildMutex.RLock()
	buildErr := s.buildErr
	a, ok := s.assets[urlPath]
	s.buildMutex.RUnlock()

	if buildErr != nil && (urlPath == "/index.html" || !ok) {
		s.serveError(w, buildErr)
		return
	}
	if !ok {
		s.static.ServeHTTP(w, r)
		return
	}

	w.Header().Set("Content-Type", a.contentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(a.data)
}

func (s *devServer) serveError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>pria error</title></head>
<body><pre style="color:#b91c1c;white-space:pre-wrap">%s</pre>
<script type="module">
const reload = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + %q);
reload.onmessage = (event) => { if (JSON.parse(event.data).type === "reload") location.reload(); };
</script>
</body>
</html>
`, html.EscapeString(describe(err, false)), jsrt.ReloadPath)
}

func (s *devServer) setupWatcher() error {
	// Watch the project directory and subdirectories
	return filepath.Walk(s.project.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && s.skipDir(path, info.Name()) {
			return filepath.SkipDir
		}
		if info.IsDir() {
			return s.watcher.Add(path)
		}
		return nil
	})
}

// skipDir reports directories never watched: hidden ones, node_modules
// and the build output.
func (s *devServer) skipDir(path, name string) bool {
	if path == s.project.root {
		return false
	}
	if strings.HasPrefix(name, ".") || name == "node_modules" {
		return true
	}
	out := s.project.config.OutDir
	if !filepath.IsAbs(out) {
		out = filepath.Join(s.project.root, out)
	}
	return path == out
}

func (s *devServer) watchFiles() {
	debounce := time.NewTimer(0)
	<-debounce.C // drain initial timer

	var pendingEvents []fsnotify.Event

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			// New directories are watched as they appear
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !s.skipDir(event.Name, info.Name()) {
					s.watcher.Add(event.Name)
					continue
				}
			}

			if !s.isRelevantFile(event.Name) {
				continue
			}

			pendingEvents = append(pendingEvents, event)

			// Reset debounce timer
			debounce.Reset(s.debounce)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Println("Watcher error:", err)

		case <-debounce.C:
			events := pendingEvents
			pendingEvents = nil

			if len(events) > 0 {
				s.handleFileChanges(events)
			}
		}
	}
}

func (s *devServer) isRelevantFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jsx" || ext == ".js" || ext == ".css" || ext == ".html"
}

func (s *devServer) handleFileChanges(events []fsnotify.Event) {
	var changed []string
	seen := make(map[string]bool)
	for _, event := range events {
		if seen[event.Name] {
			continue
		}
		seen[event.Name] = true
		changed = append(changed, event.Name)
	}

	if n := s.project.registry.Invalidate(changed...); n > 0 {
		log.Printf("🗑️  Invalidated %d compiled modules\n", n)
	}

	log.Printf("🔄 %d files changed, recompiling...\n", len(changed))
	if err := s.rebuild(); err != nil {
		log.Printf("❌ Build failed:\n%s\n", describe(err, true))
		s.notifyClients("error", map[string]interface{}{
			"message": describe(err, false),
		})
		return
	}

	log.Println("✅ Build succeeded, reloading...")
	s.notifyClients("reload", nil)
}

func (s *devServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	// Register client
	s.wsMutex.Lock()
	s.wsClients[conn] = true
	s.wsMutex.Unlock()

	defer func() {
		s.wsMutex.Lock()
		delete(s.wsClients, conn)
		s.wsMutex.Unlock()
	}()

	// The reload channel is one-way; reads only detect the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}

func (s *devServer) notifyClients(msgType string, data map[string]interface{}) {
	s.wsMutex.Lock()
	defer s.wsMutex.Unlock()

	message := map[string]interface{}{
		"type": msgType,
	}
	for k, v := range data {
		message[k] = v
	}

	for conn := range s.wsClients {
		if err := conn.WriteJSON(message); err != nil {
			log.Printf("Failed to notify client: %v", err)
			conn.Close()
			delete(s.wsClients, conn)
		}
	}
}
