package integration

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"

	"liarchive/pkg/linkedin"
)

// MockLinkedInServer simulates the LinkedIn API endpoints the archiver uses:
// the userinfo profile, the paginated posts collection, and a CDN path
// serving media bytes.
type MockLinkedInServer struct {
	server *httptest.Server

	Profile linkedin.UserProfile
	Posts   []linkedin.UGCPost

	requestCount atomic.Int64
	pngPayload   []byte
}

// NewMockLinkedInServer starts a mock server with the given fixture posts.
func NewMockLinkedInServer(posts []linkedin.UGCPost) *MockLinkedInServer {
	m := &MockLinkedInServer{
		Profile: linkedin.UserProfile{
			Sub:   "mock-member",
			Name:  "Mock Member",
			Email: "mock@example.com",
		},
		Posts: posts,
	}

	var buf bytes.Buffer
	png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4)))
	m.pngPayload = buf.Bytes()

	mux := http.NewServeMux()
	mux.HandleFunc("/userinfo", m.handleUserInfo)
	mux.HandleFunc("/ugcPosts", m.handlePosts)
	mux.HandleFunc("/media/", m.handleMedia)
	m.server = httptest.NewServer(mux)
	return m
}

// URL returns the mock server's base URL.
func (m *MockLinkedInServer) URL() string {
	return m.server.URL
}

// RequestCount returns the number of API calls received.
func (m *MockLinkedInServer) RequestCount() int64 {
	return m.requestCount.Load()
}

// Close shuts the server down.
func (m *MockLinkedInServer) Close() {
	m.server.Close()
}

func (m *MockLinkedInServer) authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer mock-token"
}

func (m *MockLinkedInServer) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	m.requestCount.Add(1)
	if !m.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	json.NewEncoder(w).Encode(m.Profile)
}

func (m *MockLinkedInServer) handlePosts(w http.ResponseWriter, r *http.Request) {
	m.requestCount.Add(1)
	if !m.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	start, _ := strconv.Atoi(r.URL.Query().Get("start"))
	count, _ := strconv.Atoi(r.URL.Query().Get("count"))
	if count <= 0 {
		count = 10
	}

	end := start + count
	if end > len(m.Posts) {
		end = len(m.Posts)
	}

	resp := linkedin.UGCPostsResponse{
		Paging: linkedin.Paging{Start: start, Count: count, Total: len(m.Posts)},
	}
	if start < end {
		resp.Elements = m.Posts[start:end]
	}
	if end < len(m.Posts) {
		resp.Paging.Links = []linkedin.PagingLink{{Rel: "next", Href: "/ugcPosts?start=" + strconv.Itoa(end)}}
	}

	json.NewEncoder(w).Encode(resp)
}

func (m *MockLinkedInServer) handleMedia(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	w.Write(m.pngPayload)
}
