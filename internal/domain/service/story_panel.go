package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ellison351/gis-web/internal/domain/model"
	"github.com/ellison351/gis-web/internal/domain/repository"
)

// StoryPanelController 遺跡ごとの物語パネルを出し、一定時間後または閉じる操作で消す。
// 新しいパネルは既存のパネルを閉じない（重なって表示される）
type StoryPanelController struct {
	view             repository.StoryView
	scheduler        Scheduler
	duration         time.Duration
	defaultNarrative string
	logger           *zap.Logger

	panels map[string]*storyEntry
	seq    int
}

type storyEntry struct {
	seq   int
	panel model.StoryPanel
	timer Task
}

// NewStoryPanelController 新しいStoryPanelControllerを作成
func NewStoryPanelController(view repository.StoryView, scheduler Scheduler, duration time.Duration, defaultNarrative string, logger *zap.Logger) *StoryPanelController {
	if defaultNarrative == "" {
		defaultNarrative = model.DefaultNarrative
	}
	return &StoryPanelController{
		view:             view,
		scheduler:        scheduler,
		duration:         duration,
		defaultNarrative: defaultNarrative,
		logger:           logger,
		panels:           make(map[string]*storyEntry),
	}
}

// StartStoryMode 遺跡の物語パネルを表示し、自動で閉じるタイマーを仕掛ける
func (c *StoryPanelController) StartStoryMode(feature *model.Feature) model.StoryPanel {
	narrative := c.defaultNarrative
	if feature.HasDescription() {
		narrative = feature.GetDescription()
	}

	now := c.scheduler.Now()
	panel := model.StoryPanel{
		ID:        uuid.New().String(),
		FeatureID: feature.ID,
		Title:     model.StoryTitlePrefix + feature.Name,
		Narrative: narrative,
		CloseText: model.StoryCloseText,
		CreatedAt: now,
		ExpiresAt: now.Add(c.duration),
	}

	c.view.ShowStoryPanel(panel)
	c.seq++
	entry := &storyEntry{seq: c.seq, panel: panel}
	c.panels[panel.ID] = entry
	entry.timer = c.scheduler.AfterFunc(c.duration, func() {
		c.remove(panel.ID)
	})

	c.logger.Debug("📖 物語パネルを表示", zap.String("panel_id", panel.ID), zap.String("feature_id", feature.ID))
	return panel
}

// Close パネル自身の「閉じる」操作。タイマーより先なら即座に消す
func (c *StoryPanelController) Close(panelID string) error {
	entry, ok := c.panels[panelID]
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrStoryNotFound, panelID)
	}
	entry.timer.Cancel()
	c.remove(panelID)
	return nil
}

// OpenPanels 表示中のパネルを表示順に返す
func (c *StoryPanelController) OpenPanels() []model.StoryPanel {
	entries := make([]*storyEntry, 0, len(c.panels))
	for _, e := range c.panels {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})
	panels := make([]model.StoryPanel, len(entries))
	for i, e := range entries {
		panels[i] = e.panel
	}
	return panels
}

// ArmedTimers 発火待ちの自動クローズタイマー数
func (c *StoryPanelController) ArmedTimers() int {
	n := 0
	for _, e := range c.panels {
		if e.timer != nil && e.timer.Armed() {
			n++
		}
	}
	return n
}

// Stop 全タイマーを止める（セッション終了時）
func (c *StoryPanelController) Stop() {
	for _, e := range c.panels {
		e.timer.Cancel()
	}
}

func (c *StoryPanelController) remove(panelID string) {
	if _, ok := c.panels[panelID]; !ok {
		return
	}
	delete(c.panels, panelID)
	c.view.RemoveStoryPanel(panelID)
}
