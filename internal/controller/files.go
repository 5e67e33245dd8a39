// ABOUTME: Workspace files controller for one agent at a time
// ABOUTME: Tracks the file list, fetched contents, unsaved drafts, and the active file

package controller

import (
	"context"
	"log/slog"
	"sync"

	"github.com/2389/coven-dashboard/internal/gateway"
)

// Files owns the workspace file list of the agent being edited plus the
// contents and drafts of the files opened so far. Contents and drafts are
// keyed by file name and belong to a single agent, the owner; they are
// cleared whenever a list or file of another agent is committed.
type Files struct {
	handle *gateway.Handle
	logger *slog.Logger

	mu       sync.Mutex
	loading  bool
	saving   bool
	lastErr  string
	list     *gateway.AgentFilesList
	owner    string
	active   string
	contents map[string]string
	drafts   map[string]string
}

// FilesSnapshot is a read-only view of the files state.
// Contents and Drafts must not be modified.
type FilesSnapshot struct {
	Loading  bool
	Saving   bool
	Error    string
	List     *gateway.AgentFilesList
	Active   string
	Contents map[string]string
	Drafts   map[string]string
}

// Dirty reports whether name has a draft that differs from its saved content.
func (s FilesSnapshot) Dirty(name string) bool {
	draft, ok := s.Drafts[name]
	return ok && draft != s.Contents[name]
}

// NewFiles creates an empty files controller.
func NewFiles(handle *gateway.Handle, logger *slog.Logger) *Files {
	if logger == nil {
		logger = slog.Default().With("component", "agent-files")
	}
	return &Files{
		handle:   handle,
		logger:   logger,
		contents: map[string]string{},
		drafts:   map[string]string{},
	}
}

// LoadList fetches the workspace file list for agentID. The active file is
// kept only if it is still listed.
func (f *Files) LoadList(ctx context.Context, agentID string) {
	client, ok := f.acquire(func() bool { return true })
	if !ok {
		return
	}
	defer f.release()

	res, err := gateway.Call[gateway.AgentFilesList](ctx, client, gateway.MethodAgentsFilesList,
		gateway.AgentFileParams{AgentID: agentID})
	if err != nil {
		f.fail(err)
		return
	}
	if res == nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.owner != res.AgentID {
		f.switchOwner(res.AgentID)
		f.active = ""
	}
	f.list = res
	if f.active != "" && !listsFile(res, f.active) {
		f.active = ""
	}
}

// LoadFile fetches one file's content unless it is already loaded for
// agentID and force is false. A newly fetched file gets a draft equal to its
// content, unless a draft already exists.
func (f *Files) LoadFile(ctx context.Context, agentID, name string, force bool) {
	client, ok := f.acquire(func() bool {
		_, loaded := f.contents[name]
		return force || !loaded || f.owner != agentID
	})
	if !ok {
		return
	}
	defer f.release()

	res, err := gateway.Call[gateway.AgentFileResult](ctx, client, gateway.MethodAgentsFilesGet,
		gateway.AgentFileParams{AgentID: agentID, Name: name})
	if err != nil {
		f.fail(err)
		return
	}
	if res == nil {
		return
	}

	content := ""
	if res.File.Content != nil {
		content = *res.File.Content
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.owner != agentID {
		f.switchOwner(agentID)
	}
	f.contents = withEntry(f.contents, name, content)
	if _, ok := f.drafts[name]; !ok || force {
		f.drafts = withEntry(f.drafts, name, content)
	}
}

// Open makes name the active file.
func (f *Files) Open(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = name
}

// SetDraft replaces the unsaved content of name.
func (f *Files) SetDraft(name, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = withEntry(f.drafts, name, content)
}

// ResetDraft discards unsaved edits to name.
func (f *Files) ResetDraft(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.contents[name]
	if !ok {
		f.drafts = withoutEntry(f.drafts, name)
		return
	}
	f.drafts = withEntry(f.drafts, name, content)
}

// Save writes the draft of name through agents.files.set. On an acknowledged
// write the sent content becomes the saved content and the list entry is
// refreshed; a draft edited while the write was in flight is kept.
// The failure is returned as well as recorded.
func (f *Files) Save(ctx context.Context, agentID, name string) error {
	client, ok := connectedClient(f.handle)
	if !ok {
		return nil
	}

	f.mu.Lock()
	if f.saving {
		f.mu.Unlock()
		return nil
	}
	content, hasDraft := f.drafts[name]
	if !hasDraft {
		content = f.contents[name]
	}
	f.saving = true
	f.lastErr = ""
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.saving = false
		f.mu.Unlock()
	}()

	res, err := gateway.Call[gateway.AgentFileResult](ctx, client, gateway.MethodAgentsFilesSet,
		gateway.SetAgentFileParams{AgentID: agentID, Name: name, Content: content})
	if err != nil {
		f.fail(err)
		return err
	}
	if res == nil || !res.OK {
		f.logger.Debug("agent file save not acknowledged", "agent_id", agentID, "file", name)
		return nil
	}
	f.logger.Info("agent file saved", "agent_id", agentID, "file", name, "bytes", len(content))

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.owner == "" {
		f.owner = agentID
	}
	if f.owner == agentID {
		f.contents = withEntry(f.contents, name, content)
		if draft, ok := f.drafts[name]; !ok || draft == content {
			f.drafts = withEntry(f.drafts, name, content)
		}
	}
	if res.File.Name == "" {
		res.File.Name = name
	}
	if f.list != nil && f.list.AgentID == agentID {
		f.list = replaceFile(f.list, res.File)
	}
	return nil
}

// Snapshot returns the current files state.
func (f *Files) Snapshot() FilesSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FilesSnapshot{
		Loading:  f.loading,
		Saving:   f.saving,
		Error:    f.lastErr,
		List:     f.list,
		Active:   f.active,
		Contents: f.contents,
		Drafts:   f.drafts,
	}
}

// Reset clears everything.
func (f *Files) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	f.saving = false
	f.lastErr = ""
	f.list = nil
	f.owner = ""
	f.active = ""
	f.contents = map[string]string{}
	f.drafts = map[string]string{}
}

func (f *Files) acquire(needed func() bool) (gateway.Requester, bool) {
	client, ok := connectedClient(f.handle)
	if !ok {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loading || !needed() {
		return nil, false
	}
	f.loading = true
	f.lastErr = ""
	return client, true
}

func (f *Files) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
}

func (f *Files) fail(err error) {
	f.logger.Warn("agent files request failed", "error", err)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastErr = describe(err)
}

func listsFile(list *gateway.AgentFilesList, name string) bool {
	for _, file := range list.Files {
		if file.Name == name {
			return true
		}
	}
	return false
}

// replaceFile returns a copy of list with the entry named like file replaced,
// or appended when absent. Content is not kept in the list.
func replaceFile(list *gateway.AgentFilesList, file gateway.AgentFile) *gateway.AgentFilesList {
	file.Content = nil
	next := *list
	next.Files = make([]gateway.AgentFile, 0, len(list.Files)+1)
	replaced := false
	for _, existing := range list.Files {
		if existing.Name == file.Name {
			next.Files = append(next.Files, file)
			replaced = true
			continue
		}
		next.Files = append(next.Files, existing)
	}
	if !replaced {
		next.Files = append(next.Files, file)
	}
	return &next
}

// switchOwner drops the contents and drafts of the previous agent.
// Callers hold f.mu.
func (f *Files) switchOwner(agentID string) {
	f.owner = agentID
	f.contents = map[string]string{}
	f.drafts = map[string]string{}
}
