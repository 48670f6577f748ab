package db

import (
	"encoding/json"
	"fmt"

	"bizwars/internal/game"
)

func encodeGame(g *game.Game) ([]byte, error) {
	raw, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode game %s: %w", g.ID, err)
	}
	return raw, nil
}

func decodeGame(raw []byte) (*game.Game, error) {
	var g game.Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode game state: %w", err)
	}
	return &g, nil
}
