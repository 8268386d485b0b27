package catalog

import (
	"testing"

	"github.com/agamariel/virtshop/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Projects(t *testing.T) {
	c := Default()

	gta, ok := c.Project("GTA5RP")
	require.True(t, ok)
	assert.Len(t, gta.Servers, 23)
	assert.Equal(t, "DOWNTOWN", gta.Servers[0], "server order must be preserved")

	maj, ok := c.Project("Majestic")
	require.True(t, ok)
	assert.Len(t, maj.Servers, 17)

	_, ok = c.Project("Unknown")
	assert.False(t, ok)
}

func TestCatalog_Price(t *testing.T) {
	c := Default()

	tests := []struct {
		name     string
		project  string
		server   string
		wantSell int64
		wantBuy  int64
	}{
		{"known server", "GTA5RP", "DOWNTOWN", 690, 320},
		{"server with space", "GTA5RP", "LA PUERTA", 820, 381},
		{"majestic", "Majestic", "Miami", 700, 450},
		{"unknown server falls back", "GTA5RP", "NOWHERE", 700, 350},
		{"unknown project falls back", "Nope", "DOWNTOWN", 700, 350},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := c.Price(tt.project, tt.server)
			assert.True(t, p.SellPrice.Equal(decimal.NewFromInt(tt.wantSell)), "sell %s", p.SellPrice)
			assert.True(t, p.BuyPrice.Equal(decimal.NewFromInt(tt.wantBuy)), "buy %s", p.BuyPrice)
		})
	}
}

func TestCatalog_UnitRate(t *testing.T) {
	c := Default()

	assert.True(t, c.UnitRate("GTA5RP", "DOWNTOWN", models.OrderTypeBuy).Equal(decimal.NewFromInt(690)))
	assert.True(t, c.UnitRate("GTA5RP", "DOWNTOWN", models.OrderTypeSell).Equal(decimal.NewFromInt(320)))
	assert.True(t, c.UnitRate("GTA5RP", "???", models.OrderTypeSell).Equal(decimal.NewFromInt(350)))
}

func TestIsPreset(t *testing.T) {
	assert.True(t, IsPreset(5))
	assert.True(t, IsPreset(20))
	assert.False(t, IsPreset(9))
	assert.False(t, IsPreset(0))
}
