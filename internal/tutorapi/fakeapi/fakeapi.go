// Package fakeapi is an in-memory implementation of the tutoring API for
// tests. It records every request and supports per-operation failure
// injection and holds.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ashureev/nia-console/internal/domain"
	"github.com/ashureev/nia-console/internal/identity"
)

// BasePath is the versioned prefix every route is mounted under.
const BasePath = "/api/v1"

// Operation names used for failure injection and request counting.
const (
	OpLogin             = "login"
	OpRegister          = "register"
	OpListChildren      = "list_children"
	OpCreateChild       = "create_child"
	OpListFolders       = "list_folders"
	OpListConversations = "list_conversations"
	OpLoadMessages      = "load_messages"
	OpSendMessage       = "send_message"
	OpSubmitFeedback    = "submit_feedback"
	OpOverview          = "overview"
	OpChildDashboard    = "child_dashboard"
	OpFullConversation  = "full_conversation"
)

var signingKey = []byte("fakeapi-signing-key")

// Request is a recorded inbound request.
type Request struct {
	Op            string
	Method        string
	Path          string
	Query         string
	Authorization string
	Body          []byte
}

// Reply is the assistant answer produced for a sent message.
type Reply struct {
	Text        string
	SourceLabel string
	Folder      string
	Sources     []domain.Source
}

type failure struct {
	status int
	detail string
	drop   bool
}

type parent struct {
	id       int64
	fullName string
	email    string
	password string
}

type message struct {
	id          int64
	role        domain.Role
	content     string
	sourceLabel string
	createdAt   time.Time
	feedback    *bool
}

type conversation struct {
	id        int64
	childID   int64
	title     string
	folder    string
	createdAt time.Time
	updatedAt time.Time
	messages  []*message
}

// API is the fake server. It implements http.Handler.
type API struct {
	mu            sync.Mutex
	router        chi.Router
	parents       map[string]*parent
	children      map[int64]*domain.ChildProfile
	childOwner    map[int64]string
	conversations map[int64]*conversation
	messages      map[int64]*message
	nextID        int64
	requests      []Request
	failures      map[string]failure
	holds         map[string]chan struct{}
	reply         func(domain.SendRequest) Reply
	activity      []domain.ActivityPoint
	wrapChildren  bool
	fixedTokens   map[string]string
	now           func() time.Time
}

// New creates an empty fake API.
func New() *API {
	a := &API{
		parents:       make(map[string]*parent),
		children:      make(map[int64]*domain.ChildProfile),
		childOwner:    make(map[int64]string),
		conversations: make(map[int64]*conversation),
		messages:      make(map[int64]*message),
		failures:      make(map[string]failure),
		holds:         make(map[string]chan struct{}),
		fixedTokens:   make(map[string]string),
		now:           time.Now,
		reply: func(req domain.SendRequest) Reply {
			return Reply{Text: "Answer to: " + req.Text, SourceLabel: "📚 From Curriculum", Folder: "General"}
		},
	}
	a.router = a.routes()
	return a
}

func (a *API) routes() chi.Router {
	r := chi.NewRouter()
	r.Route(BasePath, func(r chi.Router) {
		r.Post("/auth/parent/login", a.handle(OpLogin, a.login))
		r.Post("/auth/parent/register", a.handle(OpRegister, a.register))

		r.Get("/children/", a.handle(OpListChildren, a.authed(a.listChildren)))
		r.Post("/children/", a.handle(OpCreateChild, a.authed(a.createChild)))

		r.Get("/conversation/folders/{id}", a.handle(OpListFolders, a.listFolders))
		r.Get("/conversation/conversations/{id}", a.handle(OpListConversations, a.listConversations))
		r.Get("/conversation/conversations/{id}/messages", a.handle(OpLoadMessages, a.loadMessages))
		r.Post("/conversation/message", a.handle(OpSendMessage, a.sendMessage))
		r.Post("/conversation/feedback", a.handle(OpSubmitFeedback, a.submitFeedback))

		r.Get("/parent/dashboard/overview", a.handle(OpOverview, a.authed(a.overview)))
		r.Get("/parent/dashboard/child/{id}", a.handle(OpChildDashboard, a.authed(a.childDashboard)))
		r.Get("/parent/dashboard/conversation/{id}/full", a.handle(OpFullConversation, a.authed(a.fullConversation)))
	})
	return r
}

// ServeHTTP implements http.Handler.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Fail makes every following call of op answer with status and detail.
func (a *API) Fail(op string, status int, detail string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures[op] = failure{status: status, detail: detail}
}

// Drop makes every following call of op abort the connection.
func (a *API) Drop(op string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures[op] = failure{drop: true}
}

// Restore removes injected failures of op.
func (a *API) Restore(op string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.failures, op)
}

// Hold blocks calls of op until the returned release function is called.
func (a *API) Hold(op string) (release func()) {
	ch := make(chan struct{})
	a.mu.Lock()
	a.holds[op] = ch
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			if a.holds[op] == ch {
				delete(a.holds, op)
			}
			a.mu.Unlock()
			close(ch)
		})
	}
}

// SetReply replaces the assistant reply generator.
func (a *API) SetReply(fn func(domain.SendRequest) Reply) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reply = fn
}

// SetActivity fixes the recent_activity series of the overview. A nil series
// keeps the computed one.
func (a *API) SetActivity(points []domain.ActivityPoint) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if points == nil {
		a.activity = nil
		return
	}
	a.activity = append([]domain.ActivityPoint{}, points...)
}

// WrapChildren makes the list-children endpoint answer {"children": [...]}.
func (a *API) WrapChildren(wrap bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.wrapChildren = wrap
}

// SetClock replaces the time source used for timestamps.
func (a *API) SetClock(now func() time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.now = now
}

// Requests returns a copy of the recorded requests.
func (a *API) Requests() []Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Request(nil), a.requests...)
}

// RequestsFor returns the recorded requests of op.
func (a *API) RequestsFor(op string) []Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []Request
	for _, req := range a.requests {
		if req.Op == op {
			out = append(out, req)
		}
	}
	return out
}

// Count returns how many times op was called.
func (a *API) Count(op string) int {
	return len(a.RequestsFor(op))
}

// AddParent registers a parent account.
func (a *API) AddParent(fullName, email, password string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.addParentLocked(fullName, email, password)
}

// IssueToken returns a valid bearer token for a registered parent: the
// fixed token when one is set, a freshly minted JWT otherwise.
func (a *API) IssueToken(email string) string {
	a.mu.Lock()
	for token, owner := range a.fixedTokens {
		if owner == email {
			a.mu.Unlock()
			return token
		}
	}
	a.mu.Unlock()
	return a.mint(email, a.clock().Add(24*time.Hour))
}

// FixToken makes login and register of email answer with token, and accepts
// it as a bearer token.
func (a *API) FixToken(email, token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fixedTokens[token] = email
}

// AddChild registers a child under the parent with email.
func (a *API) AddChild(email string, child domain.ChildProfile) domain.ChildProfile {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addChildLocked(email, child)
}

// SeedMessage is a message used when seeding a conversation.
type SeedMessage struct {
	Role        domain.Role
	Content     string
	SourceLabel string
	At          time.Time
}

// AddConversation seeds a conversation and returns its id.
func (a *API) AddConversation(childID int64, title, folder string, msgs ...SeedMessage) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	conv := &conversation{
		id:        a.id(),
		childID:   childID,
		title:     title,
		folder:    folder,
		createdAt: now,
		updatedAt: now,
	}
	for _, m := range msgs {
		at := m.At
		if at.IsZero() {
			at = now
		}
		msg := &message{id: a.id(), role: m.Role, content: m.Content, sourceLabel: m.SourceLabel, createdAt: at}
		conv.messages = append(conv.messages, msg)
		a.messages[msg.id] = msg
		if at.After(conv.updatedAt) {
			conv.updatedAt = at
		}
	}
	a.conversations[conv.id] = conv
	return conv.id
}

// Feedback returns the recorded rating of a message.
func (a *API) Feedback(messageID int64) (bool, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	msg, ok := a.messages[messageID]
	if !ok || msg.feedback == nil {
		return false, false
	}
	return *msg.feedback, true
}

func (a *API) clock() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.now()
}

func (a *API) id() int64 {
	a.nextID++
	return a.nextID
}

func (a *API) addParentLocked(fullName, email, password string) *parent {
	p := &parent{id: a.id(), fullName: fullName, email: email, password: password}
	a.parents[email] = p
	return p
}

func (a *API) addChildLocked(email string, child domain.ChildProfile) domain.ChildProfile {
	child.ID = a.id()
	if p, ok := a.parents[email]; ok {
		child.ParentID = p.id
	}
	if child.PreferredLanguage == "" {
		child.PreferredLanguage = "en"
	}
	stored := child
	a.children[child.ID] = &stored
	a.childOwner[child.ID] = email
	return child
}

func (a *API) mint(email string, exp time.Time) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": email,
		"exp": exp.Unix(),
	}).SignedString(signingKey)
	if err != nil {
		panic("fakeapi: sign token: " + err.Error())
	}
	return token
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, body []byte)

// handle records the request, applies holds and injected failures, then
// runs next.
func (a *API) handle(op string, next handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		a.mu.Lock()
		a.requests = append(a.requests, Request{
			Op:            op,
			Method:        r.Method,
			Path:          strings.TrimPrefix(r.URL.Path, BasePath),
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get(identity.HeaderName),
			Body:          body,
		})
		hold := a.holds[op]
		fail, failing := a.failures[op]
		a.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}

		if failing {
			if fail.drop {
				panic(http.ErrAbortHandler)
			}
			writeDetail(w, fail.status, fail.detail)
			return
		}

		next(w, r, body)
	}
}

type authedFunc func(w http.ResponseWriter, r *http.Request, body []byte, email string)

func (a *API) authed(next authedFunc) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request, body []byte) {
		token, ok := identity.TokenFromHeader(r.Header.Get(identity.HeaderName))
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		a.mu.Lock()
		email, fixed := a.fixedTokens[token]
		a.mu.Unlock()

		if !fixed {
			claims := jwt.MapClaims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
				return signingKey, nil
			})
			if err != nil || !parsed.Valid {
				writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}
			email, _ = claims.GetSubject()
		}

		a.mu.Lock()
		_, known := a.parents[email]
		a.mu.Unlock()
		if !known {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next(w, r, body, email)
	}
}

func (a *API) login(w http.ResponseWriter, _ *http.Request, body []byte) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid body")
		return
	}

	a.mu.Lock()
	p, ok := a.parents[req.Email]
	a.mu.Unlock()
	if !ok || p.password != req.Password {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	writeJSON(w, http.StatusOK, a.tokenPayload(p))
}

func (a *API) register(w http.ResponseWriter, _ *http.Request, body []byte) {
	var req struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid body")
		return
	}
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": "field required"}},
		})
		return
	}

	a.mu.Lock()
	if _, exists := a.parents[req.Email]; exists {
		a.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	p := a.addParentLocked(req.FullName, req.Email, req.Password)
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, a.tokenPayload(p))
}

func (a *API) tokenPayload(p *parent) map[string]any {
	return map[string]any{
		"access_token": a.IssueToken(p.email),
		"token_type":   "bearer",
		"parent_id":    p.id,
		"email":        p.email,
		"full_name":    p.fullName,
	}
}

func (a *API) listChildren(w http.ResponseWriter, _ *http.Request, _ []byte, email string) {
	a.mu.Lock()
	children := make([]domain.ChildProfile, 0)
	for id, owner := range a.childOwner {
		if owner == email {
			children = append(children, *a.children[id])
		}
	}
	wrap := a.wrapChildren
	a.mu.Unlock()

	sort.Slice(children, func(i, j int) bool { return children[i].ID < children[j].ID })
	if wrap {
		writeJSON(w, http.StatusOK, map[string]any{"children": children})
		return
	}
	writeJSON(w, http.StatusOK, children)
}

func (a *API) createChild(w http.ResponseWriter, _ *http.Request, body []byte, email string) {
	var req struct {
		FirstName         string  `json:"first_name"`
		Nickname          *string `json:"nickname"`
		DateOfBirth       string  `json:"date_of_birth"`
		GradeLevel        string  `json:"grade_level"`
		PreferredLanguage string  `json:"preferred_language"`
		PIN               string  `json:"pin"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid body")
		return
	}
	if req.FirstName == "" || req.DateOfBirth == "" || req.GradeLevel == "" || req.PIN == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "Missing required fields")
		return
	}

	child := domain.ChildProfile{
		FirstName:         req.FirstName,
		GradeLevel:        req.GradeLevel,
		PreferredLanguage: req.PreferredLanguage,
	}
	if req.Nickname != nil {
		child.Nickname = *req.Nickname
	}

	a.mu.Lock()
	created := a.addChildLocked(email, child)
	a.mu.Unlock()

	writeJSON(w, http.StatusCreated, created)
}

func (a *API) listFolders(w http.ResponseWriter, r *http.Request, _ []byte) {
	childID, ok := pathID(w, r)
	if !ok {
		return
	}

	a.mu.Lock()
	convs := a.childConversationsLocked(childID, "")
	a.mu.Unlock()

	// Oldest first so folder order is stable as conversations are added.
	sort.Slice(convs, func(i, j int) bool { return convs[i].id < convs[j].id })
	seen := make(map[string]bool)
	folders := make([]string, 0)
	for _, c := range convs {
		if !seen[c.folder] {
			seen[c.folder] = true
			folders = append(folders, c.folder)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

func (a *API) listConversations(w http.ResponseWriter, r *http.Request, _ []byte) {
	childID, ok := pathID(w, r)
	if !ok {
		return
	}
	folder := r.URL.Query().Get("folder")

	a.mu.Lock()
	convs := a.childConversationsLocked(childID, folder)
	out := make([]map[string]any, 0, len(convs))
	for _, c := range convs {
		out = append(out, summary(c))
	}
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"conversations": out})
}

func (a *API) loadMessages(w http.ResponseWriter, r *http.Request, _ []byte) {
	convID, ok := pathID(w, r)
	if !ok {
		return
	}

	a.mu.Lock()
	conv, found := a.conversations[convID]
	var out []map[string]any
	if found {
		out = make([]map[string]any, 0, len(conv.messages))
		for _, m := range conv.messages {
			out = append(out, map[string]any{"id": m.id, "role": m.role, "content": m.content})
		}
	}
	a.mu.Unlock()

	if !found {
		writeDetail(w, http.StatusNotFound, "Conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": out})
}

func (a *API) sendMessage(w http.ResponseWriter, _ *http.Request, body []byte) {
	var req domain.SendRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid body")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.children[req.ChildID]; !ok {
		writeDetail(w, http.StatusNotFound, "Child not found")
		return
	}

	reply := a.reply(req)
	if reply.Folder == "" {
		reply.Folder = "General"
	}
	now := a.now()

	var conv *conversation
	if req.ConversationID != nil {
		conv = a.conversations[*req.ConversationID]
		if conv == nil || conv.childID != req.ChildID {
			writeDetail(w, http.StatusNotFound, "Conversation not found")
			return
		}
	} else {
		title := req.Text
		if len(title) > 50 {
			title = title[:50]
		}
		conv = &conversation{
			id:        a.id(),
			childID:   req.ChildID,
			title:     title,
			folder:    reply.Folder,
			createdAt: now,
		}
		a.conversations[conv.id] = conv
	}

	userMsg := &message{id: a.id(), role: domain.RoleUser, content: req.Text, createdAt: now}
	botMsg := &message{id: a.id(), role: domain.RoleAssistant, content: reply.Text, sourceLabel: reply.SourceLabel, createdAt: now}
	conv.messages = append(conv.messages, userMsg, botMsg)
	conv.updatedAt = now
	a.messages[userMsg.id] = userMsg
	a.messages[botMsg.id] = botMsg

	sources := reply.Sources
	if sources == nil {
		sources = []domain.Source{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":              botMsg.id,
		"conversation_id": conv.id,
		"text":            reply.Text,
		"folder":          conv.folder,
		"source_label":    reply.SourceLabel,
		"sources":         sources,
		"timestamp":       now.Format("2006-01-02T15:04:05.999999"),
	})
}

func (a *API) submitFeedback(w http.ResponseWriter, _ *http.Request, body []byte) {
	var req domain.FeedbackRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid body")
		return
	}

	a.mu.Lock()
	msg, ok := a.messages[req.MessageID]
	if ok {
		helpful := req.IsHelpful
		msg.feedback = &helpful
	}
	a.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "Message not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (a *API) overview(w http.ResponseWriter, _ *http.Request, _ []byte, email string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var childCount, convCount, msgCount int
	topics := make([]string, 0)
	seen := make(map[string]bool)
	var all []*message
	for id, owner := range a.childOwner {
		if owner != email {
			continue
		}
		childCount++
		for _, c := range a.childConversationsLocked(id, "") {
			convCount++
			msgCount += len(c.messages)
			all = append(all, c.messages...)
			if !seen[c.folder] {
				seen[c.folder] = true
				topics = append(topics, c.folder)
			}
		}
	}
	sort.Strings(topics)

	activity := a.activity
	if activity == nil {
		activity = dailyActivity(all, a.now(), 7)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_children":      childCount,
		"total_conversations": convCount,
		"total_messages":      msgCount,
		"topics_covered":      topics,
		"recent_activity":     activity,
	})
}

func (a *API) childDashboard(w http.ResponseWriter, r *http.Request, _ []byte, email string) {
	childID, ok := pathID(w, r)
	if !ok {
		return
	}
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days <= 0 {
		days = 7
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	child, found := a.children[childID]
	if !found || a.childOwner[childID] != email {
		writeDetail(w, http.StatusNotFound, "Child not found")
		return
	}

	since := a.now().AddDate(0, 0, -days)
	breakdown := make(map[string]int)
	recent := make([]map[string]any, 0)
	var all []*message
	var msgTotal int
	convs := a.childConversationsLocked(childID, "")
	var inWindow int
	for _, c := range convs {
		if c.updatedAt.Before(since) {
			continue
		}
		inWindow++
		breakdown[c.folder]++
		msgTotal += len(c.messages)
		all = append(all, c.messages...)
		if len(recent) < 10 {
			recent = append(recent, summary(c))
		}
	}

	avg := 0.0
	if inWindow > 0 {
		avg = float64(int(float64(msgTotal)/float64(inWindow)*10+0.5)) / 10
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"child": map[string]any{
			"id":          child.ID,
			"name":        child.FirstName,
			"nickname":    child.Nickname,
			"grade_level": child.GradeLevel,
		},
		"total_conversations":           inWindow,
		"topics_breakdown":              breakdown,
		"daily_activity":                dailyActivity(all, a.now(), days),
		"avg_messages_per_conversation": avg,
		"recent_conversations":          recent,
	})
}

func (a *API) fullConversation(w http.ResponseWriter, r *http.Request, _ []byte, email string) {
	convID, ok := pathID(w, r)
	if !ok {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	conv, found := a.conversations[convID]
	if !found || a.childOwner[conv.childID] != email {
		writeDetail(w, http.StatusNotFound, "Conversation not found")
		return
	}
	child := a.children[conv.childID]

	msgs := make([]map[string]any, 0, len(conv.messages))
	for _, m := range conv.messages {
		var feedback any
		if m.feedback != nil {
			feedback = *m.feedback
		}
		var sourceLabel any
		if m.sourceLabel != "" {
			sourceLabel = m.sourceLabel
		}
		msgs = append(msgs, map[string]any{
			"id":           m.id,
			"role":         m.role,
			"content":      m.content,
			"source_label": sourceLabel,
			"created_at":   m.createdAt.Format("2006-01-02T15:04:05.999999"),
			"feedback":     feedback,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversation": map[string]any{
			"id":         conv.id,
			"title":      conv.title,
			"folder":     conv.folder,
			"created_at": conv.createdAt.Format("2006-01-02T15:04:05.999999"),
			"updated_at": conv.updatedAt.Format("2006-01-02T15:04:05.999999"),
		},
		"child":    map[string]any{"id": child.ID, "name": child.FirstName},
		"messages": msgs,
	})
}

// childConversationsLocked returns the conversations of a child, newest first.
func (a *API) childConversationsLocked(childID int64, folder string) []*conversation {
	var out []*conversation
	for _, c := range a.conversations {
		if c.childID != childID || (folder != "" && c.folder != folder) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].updatedAt.Equal(out[j].updatedAt) {
			return out[i].id > out[j].id
		}
		return out[i].updatedAt.After(out[j].updatedAt)
	})
	return out
}

func summary(c *conversation) map[string]any {
	return map[string]any{
		"id":            c.id,
		"title":         c.title,
		"folder":        c.folder,
		"message_count": len(c.messages),
		"created_at":    c.createdAt.Format("2006-01-02T15:04:05.999999"),
		"updated_at":    c.updatedAt.Format("2006-01-02T15:04:05.999999"),
	}
}

// dailyActivity counts messages per calendar day over the last days, oldest
// first, skipping days without messages.
func dailyActivity(msgs []*message, now time.Time, days int) []domain.ActivityPoint {
	since := now.AddDate(0, 0, -days)
	counts := make(map[string]int)
	for _, m := range msgs {
		if m.createdAt.Before(since) {
			continue
		}
		counts[m.createdAt.Format("2006-01-02")]++
	}
	dates := make([]string, 0, len(counts))
	for d := range counts {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	out := make([]domain.ActivityPoint, 0, len(dates))
	for _, d := range dates {
		out = append(out, domain.ActivityPoint{Date: d, Messages: counts[d]})
	}
	return out
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid id %q", chi.URLParam(r, "id")))
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
