// Package catalog содержит справочник проектов, серверов и цен за 1кк.
package catalog

import (
	"github.com/agamariel/virtshop/internal/models"
	"github.com/shopspring/decimal"
)

// Prices - цены за один блок (1кк). SellPrice - цена продажи покупателю,
// BuyPrice - цена выкупа у продавца.
type Prices struct {
	SellPrice decimal.Decimal
	BuyPrice  decimal.Decimal
}

// DefaultPrices возвращаются для неизвестных серверов.
var DefaultPrices = Prices{
	SellPrice: decimal.NewFromInt(700),
	BuyPrice:  decimal.NewFromInt(350),
}

// PresetBlocks - готовые варианты количества в меню.
var PresetBlocks = []uint64{1, 2, 3, 4, 5, 6, 7, 8, 10, 15, 20}

// Project описывает игровой проект.
type Project struct {
	Key     string
	Name    string
	Servers []string
	prices  map[string]Prices
}

// Catalog - неизменяемый справочник проектов.
type Catalog struct {
	projects []*Project
	byKey    map[string]*Project
}

// New собирает справочник из списка проектов.
func New(projects ...*Project) *Catalog {
	c := &Catalog{byKey: make(map[string]*Project, len(projects))}
	for _, p := range projects {
		c.projects = append(c.projects, p)
		c.byKey[p.Key] = p
	}
	return c
}

// NewProject создаёт проект; порядок серверов сохраняется.
func NewProject(key, name string, servers []ServerPrice) *Project {
	p := &Project{Key: key, Name: name, prices: make(map[string]Prices, len(servers))}
	for _, s := range servers {
		p.Servers = append(p.Servers, s.Name)
		p.prices[s.Name] = Prices{
			SellPrice: decimal.NewFromInt(s.SellPrice),
			BuyPrice:  decimal.NewFromInt(s.BuyPrice),
		}
	}
	return p
}

// ServerPrice - строка прайса.
type ServerPrice struct {
	Name      string
	SellPrice int64
	BuyPrice  int64
}

// Projects возвращает проекты в порядке объявления.
func (c *Catalog) Projects() []*Project {
	return c.projects
}

// Project возвращает проект по ключу.
func (c *Catalog) Project(key string) (*Project, bool) {
	p, ok := c.byKey[key]
	return p, ok
}

// HasServer сообщает, есть ли сервер в прайсе проекта.
func (p *Project) HasServer(server string) bool {
	_, ok := p.prices[server]
	return ok
}

// Price возвращает цены сервера. Для неизвестного проекта или сервера
// возвращается DefaultPrices: наличие цены не означает, что сервер существует.
func (c *Catalog) Price(project, server string) Prices {
	p, ok := c.byKey[project]
	if !ok {
		return DefaultPrices
	}
	prices, ok := p.prices[server]
	if !ok {
		return DefaultPrices
	}
	return prices
}

// UnitRate возвращает цену за 1кк с точки зрения магазина:
// покупателю продаём по SellPrice, у продавца выкупаем по BuyPrice.
func (c *Catalog) UnitRate(project, server string, action models.OrderType) decimal.Decimal {
	prices := c.Price(project, server)
	if action == models.OrderTypeSell {
		return prices.BuyPrice
	}
	return prices.SellPrice
}

// IsPreset сообщает, входит ли количество в готовые варианты меню.
func IsPreset(blocks uint64) bool {
	for _, b := range PresetBlocks {
		if b == blocks {
			return true
		}
	}
	return false
}
