// Package ui renders the history as a menubar menu: status, the most recent
// items (click to restore), and history controls.
package ui

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"runtime"
	"slices"
	"time"

	"fyne.io/systray"

	"github.com/mindmorass/clipstack/internal/engine"
	"github.com/mindmorass/clipstack/internal/update"
)

// RecentSlots is the number of history items listed in the menu
const RecentSlots = 10

// HistorySizes are the capacities offered in the History Size submenu
var HistorySizes = []int{25, 50, 100, 200, 500}

const restoreTimeout = 5 * time.Second

// App interface for the main application
type App interface {
	Engine() *engine.Engine
	SetMaxHistorySize(n int)
	RegisterLocation() string
	SetRegisterLocation(path string) error
	Version() string
	UpdateChecker() *update.Checker
	Quit()
}

// Menubar manages the system tray
type Menubar struct {
	app          App
	mStatus      *systray.MenuItem
	mCount       *systray.MenuItem
	mLastCapture *systray.MenuItem
	slots        []*systray.MenuItem
	slotItems    *slotTable
	mPause       *systray.MenuItem
	mResume      *systray.MenuItem
	sizes        map[int]*systray.MenuItem
	mRegisterLoc *systray.MenuItem
	mUpdate      *systray.MenuItem
	updateURL    chan string
	refresh      chan struct{}
	unsubscribe  func()
	quitChan     chan struct{}
}

// NewMenubar creates a new menubar
func NewMenubar(app App) *Menubar {
	return &Menubar{
		app:       app,
		sizes:     make(map[int]*systray.MenuItem),
		slotItems: newSlotTable(RecentSlots),
		refresh:   make(chan struct{}, 1),
		updateURL: make(chan string, 1),
		quitChan:  make(chan struct{}),
	}
}

// Run starts the menubar (blocking)
func (m *Menubar) Run() {
	systray.Run(m.onReady, m.onExit)
}

// Quit signals the menubar to exit
func (m *Menubar) Quit() {
	systray.Quit()
}

func (m *Menubar) onReady() {
	eng := m.app.Engine()

	systray.SetTemplateIcon(createStackIcon(), createStackIcon())
	systray.SetTitle("")
	systray.SetTooltip("Clipstack")

	m.mStatus = systray.AddMenuItem("Status: Starting...", "")
	m.mStatus.Disable()
	m.mCount = systray.AddMenuItem("", "")
	m.mCount.Disable()
	m.mLastCapture = systray.AddMenuItem("Last capture: Never", "")
	m.mLastCapture.Disable()

	systray.AddSeparator()

	for i := 0; i < RecentSlots; i++ {
		slot := systray.AddMenuItem("", "Copy to clipboard")
		slot.Hide()
		m.slots = append(m.slots, slot)
	}

	systray.AddSeparator()

	mClear := systray.AddMenuItem("Clear History", "")
	mSize := systray.AddMenuItem("History Size", "Maximum number of items kept")
	sizes := HistorySizes
	if current := eng.MaxHistorySize(); !slices.Contains(sizes, current) {
		sizes = append(slices.Clone(sizes), current)
		slices.Sort(sizes)
	}
	for _, n := range sizes {
		m.sizes[n] = mSize.AddSubMenuItemCheckbox(sizeTitle(n), "", n == eng.MaxHistorySize())
	}

	m.mPause = systray.AddMenuItem("Pause Capture", "")
	m.mResume = systray.AddMenuItem("Resume Capture", "")
	m.mResume.Hide()

	systray.AddSeparator()

	mRegister := systray.AddMenuItem("Register Folder", "Shared folder to capture from")
	m.mRegisterLoc = mRegister.AddSubMenuItem("Not configured", "")
	m.mRegisterLoc.Disable()
	mChoose := mRegister.AddSubMenuItem("Choose Folder...", "")

	m.mUpdate = systray.AddMenuItem("Update Available!", "A new version is available")
	m.mUpdate.Hide()
	mCheckUpdate := systray.AddMenuItem("Check for Updates", "")
	mVersion := systray.AddMenuItem("Version: "+m.app.Version(), "")
	mVersion.Disable()

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "")

	m.updateRegisterLocation()
	m.updateStatus(eng.GetStatus())
	eng.OnStatusChange(m.updateStatus)
	m.unsubscribe = eng.Subscribe(m.requestRefresh)
	m.render()

	go m.refreshLoop()
	go m.updateCheckLoop()
	for i, slot := range m.slots {
		go m.slotLoop(i, slot)
	}
	for n, item := range m.sizes {
		go m.sizeLoop(n, item)
	}

	go func() {
		for {
			select {
			case <-mClear.ClickedCh:
				eng.Clear()

			case <-m.mPause.ClickedCh:
				eng.Pause()
				m.mPause.Hide()
				m.mResume.Show()

			case <-m.mResume.ClickedCh:
				eng.Resume()
				m.mResume.Hide()
				m.mPause.Show()

			case <-mChoose.ClickedCh:
				path := PickFolder("Choose the shared clipboard register folder")
				if path == "" {
					continue
				}
				if err := m.app.SetRegisterLocation(path); err != nil {
					log.Printf("Failed to set register location: %v", err)
					continue
				}
				m.updateRegisterLocation()

			case <-mCheckUpdate.ClickedCh:
				go m.checkForUpdates()

			case <-m.mUpdate.ClickedCh:
				select {
				case url := <-m.updateURL:
					m.updateURL <- url
					openBrowser(url)
				default:
				}

			case <-mQuit.ClickedCh:
				m.app.Quit()
				return

			case <-m.quitChan:
				return
			}
		}
	}()
}

func (m *Menubar) onExit() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	close(m.quitChan)
}

// requestRefresh runs on the engine loop, so it only schedules a redraw
func (m *Menubar) requestRefresh() {
	select {
	case m.refresh <- struct{}{}:
	default:
	}
}

func (m *Menubar) refreshLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-m.refresh:
			m.render()
		case <-ticker.C:
			m.render()
		case <-m.quitChan:
			return
		}
	}
}

func (m *Menubar) render() {
	eng := m.app.Engine()
	items := eng.History()
	now := time.Now()

	m.mCount.SetTitle(countTitle(len(items), eng.MaxHistorySize()))
	m.mLastCapture.SetTitle(lastCaptureTitle(eng.GetLastCaptureTime(), now))

	m.slotItems.set(items)
	for i, slot := range m.slots {
		if i >= len(items) {
			slot.Hide()
			continue
		}
		slot.SetTitle(slotTitle(items[i], now))
		slot.SetTooltip(items[i].Preview)
		slot.Show()
	}
}

func (m *Menubar) slotLoop(index int, slot *systray.MenuItem) {
	for {
		select {
		case <-slot.ClickedCh:
			id, ok := m.slotItems.id(index)
			if !ok {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
			if err := m.app.Engine().RestoreByID(ctx, id); err != nil {
				log.Printf("Failed to restore item %d: %v", index, err)
			}
			cancel()
		case <-m.quitChan:
			return
		}
	}
}

func (m *Menubar) sizeLoop(n int, item *systray.MenuItem) {
	for {
		select {
		case <-item.ClickedCh:
			m.app.SetMaxHistorySize(n)
			for size, other := range m.sizes {
				if size == n {
					other.Check()
				} else {
					other.Uncheck()
				}
			}
			m.requestRefresh()
		case <-m.quitChan:
			return
		}
	}
}

func (m *Menubar) updateStatus(status engine.Status) {
	m.mStatus.SetTitle(statusTitle(status))
}

func (m *Menubar) updateRegisterLocation() {
	loc := m.app.RegisterLocation()
	if loc == "" {
		m.mRegisterLoc.SetTitle("Not configured")
	} else {
		m.mRegisterLoc.SetTitle("✓ " + loc)
	}
}

func (m *Menubar) checkForUpdates() {
	checker := m.app.UpdateChecker()
	if checker == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	info, err := checker.Check(ctx)
	if err != nil {
		log.Printf("Update check failed: %v", err)
		return
	}

	if !info.Available {
		m.mUpdate.Hide()
		return
	}

	// Keep only the newest release URL
	select {
	case <-m.updateURL:
	default:
	}
	m.updateURL <- info.ReleaseURL

	m.mUpdate.SetTitle(fmt.Sprintf("Update Available: %s", info.LatestVersion))
	m.mUpdate.Show()
	log.Printf("Update available: %s -> %s", info.CurrentVersion, info.LatestVersion)
}

func (m *Menubar) updateCheckLoop() {
	select {
	case <-time.After(5 * time.Second):
	case <-m.quitChan:
		return
	}
	m.checkForUpdates()

	ticker := time.NewTicker(update.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.checkForUpdates()
		case <-m.quitChan:
			return
		}
	}
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		log.Printf("Unsupported platform for opening browser")
		return
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}
