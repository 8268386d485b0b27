// Package conversation ведёт диалог оформления заявки в боте.
package conversation

//go:generate mockgen -source=machine.go -destination=mocks/mock_conversation.go -package=mocks

import (
	"context"

	"github.com/agamariel/virtshop/internal/catalog"
	"github.com/agamariel/virtshop/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderGateway - доступ к сервису заявок.
type OrderGateway interface {
	CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error)
	ServerStats(ctx context.Context, project string) (models.StatsResult, error)
}

// BanChecker проверяет блокировку пользователя.
type BanChecker interface {
	CheckBan(ctx context.Context, userID int64) (models.BanStatus, error)
}

// SubscriptionChecker проверяет подписку пользователя на канал.
type SubscriptionChecker interface {
	IsSubscribed(ctx context.Context, userID int64) (bool, error)
}

// Notifier отправляет сообщение без ожидания доставки.
type Notifier interface {
	Notify(ctx context.Context, recipient int64, text string)
}

// EventKind - тип входящего события.
type EventKind int

const (
	EventHome EventKind = iota
	EventChooseAction
	EventChooseProject
	EventChooseServer
	EventChooseAmount
	EventCustomAmount
	EventBack
	EventInfo
)

// Event - действие пользователя.
type Event struct {
	Kind    EventKind
	Action  models.OrderType
	Project string
	Server  string
	Blocks  uint64
	Topic   string
	// Username без @, пустой если у пользователя его нет.
	Username string
}

// Config - настройки машины.
type Config struct {
	AdminUserID      int64
	NotifyAdminOnBuy bool
	// Channel - username канала без @ для кнопки подписки.
	Channel string
}

// Machine - конечный автомат диалога. События одного пользователя
// обрабатываются строго по очереди, разные пользователи независимы.
type Machine struct {
	catalog  *catalog.Catalog
	sessions SessionStore
	orders   OrderGateway
	bans     BanChecker
	subs     SubscriptionChecker
	notifier Notifier
	cfg      Config
	logger   *zap.SugaredLogger
	locks    *userLocks
}

// NewMachine создаёт автомат. Если subs равен nil, подписка не проверяется.
func NewMachine(
	cat *catalog.Catalog,
	sessions SessionStore,
	orders OrderGateway,
	bans BanChecker,
	subs SubscriptionChecker,
	notifier Notifier,
	cfg Config,
	logger *zap.SugaredLogger,
) *Machine {
	return &Machine{
		catalog:  cat,
		sessions: sessions,
		orders:   orders,
		bans:     bans,
		subs:     subs,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		locks:    newUserLocks(),
	}
}

// Handle обрабатывает событие пользователя и возвращает экран для показа.
func (m *Machine) Handle(ctx context.Context, userID int64, ev Event) View {
	unlock := m.locks.lock(userID)
	defer unlock()

	if status, banned := m.banned(ctx, userID); banned {
		return View{Screen: ScreenBanned, Ban: status}
	}
	if !m.subscribed(ctx, userID) {
		return View{Screen: ScreenSubscribe, Channel: m.cfg.Channel}
	}

	session, err := m.sessions.Get(ctx, userID)
	if err != nil {
		m.logger.Warnw("failed to load session", "user_id", userID, "error", err)
		session = IdleSession()
	}

	next, view := m.transition(ctx, userID, session, ev)

	if next != session {
		m.save(ctx, userID, next)
	}
	return view
}

// banned - проверка перед каждым событием. Ошибка проверки не блокирует пользователя.
func (m *Machine) banned(ctx context.Context, userID int64) (models.BanStatus, bool) {
	status, err := m.bans.CheckBan(ctx, userID)
	if err != nil {
		m.logger.Warnw("ban check failed, continuing", "user_id", userID, "error", err)
		return models.BanStatus{Degraded: true}, false
	}
	if status.Degraded {
		m.logger.Warnw("ban check degraded", "user_id", userID)
	}
	return status, status.Banned
}

// subscribed - проверка подписки на канал. Ошибка проверки считается отсутствием подписки.
func (m *Machine) subscribed(ctx context.Context, userID int64) bool {
	if m.subs == nil {
		return true
	}
	ok, err := m.subs.IsSubscribed(ctx, userID)
	if err != nil {
		m.logger.Errorw("subscription check failed", "user_id", userID, "error", err)
		return false
	}
	return ok
}

func (m *Machine) save(ctx context.Context, userID int64, s Session) {
	var err error
	if s.State == StateIdle {
		err = m.sessions.Reset(ctx, userID)
	} else {
		err = m.sessions.Save(ctx, userID, s)
	}
	if err != nil {
		m.logger.Warnw("failed to store session", "user_id", userID, "state", s.State, "error", err)
	}
}

func (m *Machine) transition(ctx context.Context, userID int64, s Session, ev Event) (Session, View) {
	switch ev.Kind {
	case EventHome:
		return IdleSession(), View{Screen: ScreenMain}

	case EventChooseAction:
		action := ev.Action
		if !action.Valid() {
			action = models.OrderTypeBuy
		}
		next := Session{State: StateSelectingProject, Action: action}
		return next, m.projectsView(next)

	case EventChooseProject:
		project, ok := m.catalog.Project(ev.Project)
		if !ok {
			v := m.projectsView(s)
			v.Alert = "Проект не найден"
			return s, v
		}
		next := Session{State: StateSelectingServer, Action: actionOf(s), Project: project.Key}
		return next, m.serversView(ctx, next)

	case EventChooseServer:
		projectKey := ev.Project
		if projectKey == "" {
			projectKey = s.Project
		}
		if _, ok := m.catalog.Project(projectKey); !ok || ev.Server == "" {
			v := m.projectsView(s)
			v.Alert = "Проект не найден"
			return s, v
		}
		next := Session{State: StateSelectingAmount, Action: actionOf(s), Project: projectKey, Server: ev.Server}
		return next, m.amountsView(next)

	case EventChooseAmount:
		return m.chooseAmount(ctx, userID, s, ev)

	case EventCustomAmount:
		v := View{Screen: ScreenCustomAmount, Action: actionOf(s), Server: s.Server}
		if p, ok := m.catalog.Project(s.Project); ok {
			v.Project = p
			v.UnitRate = m.catalog.UnitRate(p.Key, s.Server, v.Action)
		}
		return IdleSession(), v

	case EventBack:
		return m.back(ctx, s)

	case EventInfo:
		return s, View{Screen: ScreenInfo, Topic: ev.Topic}
	}

	return s, View{Screen: ScreenMain}
}

func (m *Machine) back(ctx context.Context, s Session) (Session, View) {
	switch s.State {
	case StateSelectingAmount:
		next := Session{State: StateSelectingServer, Action: s.Action, Project: s.Project}
		return next, m.serversView(ctx, next)
	case StateSelectingServer:
		next := Session{State: StateSelectingProject, Action: s.Action}
		return next, m.projectsView(next)
	default:
		return IdleSession(), View{Screen: ScreenMain}
	}
}

func (m *Machine) chooseAmount(ctx context.Context, userID int64, s Session, ev Event) (Session, View) {
	if s.State != StateSelectingAmount || s.Project == "" || s.Server == "" {
		return IdleSession(), View{Screen: ScreenMain, Alert: "Сессия устарела, начните заново"}
	}
	if !catalog.IsPreset(ev.Blocks) {
		v := m.amountsView(s)
		v.Alert = "Выберите количество из списка"
		return s, v
	}

	action := actionOf(s)
	rate := m.catalog.UnitRate(s.Project, s.Server, action)
	req := models.OrderRequest{
		OrderType:  action,
		Project:    s.Project,
		ServerName: s.Server,
		UserID:     userID,
		Amount:     ev.Blocks * models.UnitsPerBlock,
		Price:      rate.Mul(decimal.NewFromInt(int64(ev.Blocks))),
		Source:     models.SourceBot,
	}
	if ev.Username != "" {
		username := ev.Username
		req.Username = &username
	}

	order, err := m.orders.CreateOrder(ctx, req)
	if err != nil {
		m.logger.Errorw("failed to create order", "user_id", userID, "project", s.Project, "server", s.Server, "error", err)
		v := m.amountsView(s)
		v.Alert = "❌ Ошибка создания заявки. Попробуйте позже."
		return s, v
	}

	m.logger.Infow("order created from bot", "order_id", order.ID, "user_id", userID, "type", order.OrderType)

	if m.cfg.AdminUserID != 0 && (action == models.OrderTypeSell || m.cfg.NotifyAdminOnBuy) {
		m.notifier.Notify(ctx, m.cfg.AdminUserID, ModerationNote(order))
	}

	v := View{Screen: ScreenOrderCreated, Action: action, Server: s.Server, UnitRate: rate, Order: order}
	v.Project, _ = m.catalog.Project(s.Project)
	return IdleSession(), v
}

func (m *Machine) projectsView(s Session) View {
	return View{Screen: ScreenProjects, Action: actionOf(s)}
}

// serversView строит список серверов. Подсказки о продавцах показываются только при покупке.
func (m *Machine) serversView(ctx context.Context, s Session) View {
	project, _ := m.catalog.Project(s.Project)
	v := View{Screen: ScreenServers, Action: actionOf(s), Project: project}
	if project == nil {
		return v
	}

	var stats map[string]models.ServerStat
	if v.Action == models.OrderTypeBuy {
		result, err := m.orders.ServerStats(ctx, project.Key)
		switch {
		case err != nil:
			m.logger.Warnw("server stats unavailable", "project", project.Key, "error", err)
			v.Degraded = true
		default:
			v.Degraded = result.Degraded
			stats = make(map[string]models.ServerStat, len(result.Stats))
			for _, st := range result.Stats {
				stats[st.ServerName] = st
			}
		}
	}

	v.Servers = make([]ServerOption, 0, len(project.Servers))
	for _, name := range project.Servers {
		opt := ServerOption{Name: name}
		if st, ok := stats[name]; ok && st.TotalSellers > 0 {
			opt.Sellers = st.TotalSellers
			opt.Amount = st.TotalAmount
			opt.HasStats = true
		}
		v.Servers = append(v.Servers, opt)
	}
	return v
}

func (m *Machine) amountsView(s Session) View {
	project, _ := m.catalog.Project(s.Project)
	action := actionOf(s)
	rate := m.catalog.UnitRate(s.Project, s.Server, action)

	v := View{Screen: ScreenAmounts, Action: action, Project: project, Server: s.Server, UnitRate: rate}
	v.Amounts = make([]AmountOption, 0, len(catalog.PresetBlocks))
	for _, b := range catalog.PresetBlocks {
		v.Amounts = append(v.Amounts, AmountOption{Blocks: b, Price: rate.Mul(decimal.NewFromInt(int64(b)))})
	}
	return v
}

// actionOf возвращает действие сессии; устаревшая кнопка без действия считается покупкой.
func actionOf(s Session) models.OrderType {
	if s.Action.Valid() {
		return s.Action
	}
	return models.OrderTypeBuy
}
