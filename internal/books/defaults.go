package books

// Sport keys that carry explicit weight overrides.
const (
	sportNFL   = "americanfootball_nfl"
	sportNCAAF = "americanfootball_ncaaf"
	sportMLB   = "baseball_mlb"
	sportWNBA  = "basketball_wnba"
	sportMMA   = "mma_mixed_martial_arts"
)

func w(def float64, overrides map[string]float64) map[string]float64 {
	m := map[string]float64{DefaultWeightKey: def}
	for k, v := range overrides {
		m[k] = v
	}
	return m
}

// DefaultGameLineTable returns the weights tuned for full-game moneylines,
// spreads and totals.
func DefaultGameLineTable() Table {
	return Table{
		"pinnacle":    {Sharp, w(3.0, map[string]float64{sportNFL: 3.0, sportNCAAF: 2.8})},
		"novig":       {Sharp, w(1.25, map[string]float64{sportWNBA: 1.85, sportNFL: 2.75, sportNCAAF: 2.5})},
		"prophetx":    {Sharp, w(2.0, map[string]float64{sportMLB: 2.0, sportNFL: 2.9, sportNCAAF: 2.75})},
		"lowvig":      {Sharp, w(2.0, map[string]float64{sportNFL: 1.5, sportMLB: 1.5})},
		"betonlineag": {Sharp, w(2.0, map[string]float64{sportMLB: 1.5, sportNFL: 2.0, sportNCAAF: 1.5})},

		"fanduel":        {Market, w(0.1, map[string]float64{sportMMA: 0.5})},
		"draftkings":     {Market, w(0.25, map[string]float64{sportMMA: 0.1, sportNCAAF: 0.1})},
		"williamhill_us": {Market, w(0.3, map[string]float64{sportMLB: 0.5, sportMMA: 0.75})},
		"betmgm":         {Market, w(1.5, map[string]float64{sportMLB: 1.65, sportWNBA: 1.25, sportNFL: 1.75, sportNCAAF: 1.75})},
		"espnbet":        {Market, w(1.25, map[string]float64{sportMLB: 0.75, sportMMA: 1.0, sportWNBA: 0.75})},
		"fanatics":       {Market, w(1.25, map[string]float64{sportMLB: 0.75, sportMMA: 1.0, sportWNBA: 0.9, sportNFL: 1.5, sportNCAAF: 1.4})},
		"hardrockbet":    {Market, w(1.25, map[string]float64{sportMLB: 1.65, sportMMA: 1.75, sportNFL: 1.75, sportNCAAF: 1.75})},
		"bet365_us":      {Market, w(1.25, map[string]float64{sportMMA: 2.0, sportNFL: 1.3, sportNCAAF: 1.3})},
		"betrivers":      {Market, w(2.25, map[string]float64{sportMLB: 4.75, sportMMA: 2.5, sportWNBA: 3.25, sportNFL: 4.75, sportNCAAF: 4.75})},
		"ballybet":       {Market, w(2.25, map[string]float64{sportMLB: 4.75, sportMMA: 2.5, sportWNBA: 3.25, sportNFL: 4.65, sportNCAAF: 4.65})},
		"fliff":          {Market, w(1.0, map[string]float64{sportMLB: 4.25, sportWNBA: 3.0, sportNFL: 2.3, sportNCAAF: 2.5})},
	}
}

// DefaultPropTable returns the weights tuned for player props. FanDuel and
// DraftKings price props sharply enough to anchor the fair line.
func DefaultPropTable() Table {
	return Table{
		"pinnacle":    {Sharp, w(3.0, map[string]float64{sportMLB: 2.6, sportNFL: 2.8, sportNCAAF: 2.8})},
		"novig":       {Sharp, w(1.25, map[string]float64{sportMLB: 2.5, sportNFL: 3.55, sportNCAAF: 2.5})},
		"prophetx":    {Sharp, w(2.0, map[string]float64{sportMLB: 2.0, sportNFL: 3.1, sportNCAAF: 2.75})},
		"lowvig":      {Sharp, w(2.0, map[string]float64{sportMLB: 1.75})},
		"betonlineag": {Sharp, w(2.0, map[string]float64{sportMLB: 1.75, sportNFL: 2.25, sportNCAAF: 2.0})},
		"fanduel":     {Sharp, w(1.0, map[string]float64{sportMLB: 2.75, sportNFL: 1.75})},
		"draftkings":  {Sharp, w(0.2, map[string]float64{sportMMA: 0.1, sportNCAAF: 0.1})},

		"williamhill_us": {Market, w(0.3, map[string]float64{sportMLB: 0.5, sportMMA: 0.75})},
		"betmgm":         {Market, w(2.5, map[string]float64{sportMLB: 2.0, sportWNBA: 1.25, sportNFL: 4.45, sportNCAAF: 2.75})},
		"espnbet":        {Market, w(1.25, map[string]float64{sportMMA: 1.0, sportWNBA: 0.75})},
		"fanatics":       {Market, w(1.25, map[string]float64{sportMLB: 1.75, sportMMA: 1.0, sportWNBA: 0.9, sportNFL: 2.97, sportNCAAF: 1.5})},
		"hardrockbet":    {Market, w(1.25, map[string]float64{sportMLB: 1.75, sportMMA: 1.75, sportNFL: 4.9, sportNCAAF: 1.7})},
		"bet365_us":      {Market, w(1.25, map[string]float64{sportMMA: 2.0, sportNFL: 1.3, sportNCAAF: 1.3})},
		"betrivers":      {Market, w(2.25, map[string]float64{sportMLB: 3, sportMMA: 2.5, sportWNBA: 4, sportNFL: 5.25, sportNCAAF: 4.5})},
		"ballybet":       {Market, w(2.25, map[string]float64{sportMLB: 3, sportMMA: 2.5, sportWNBA: 4, sportNFL: 4.0, sportNCAAF: 4.5})},
		"fliff":          {Market, w(1.0, map[string]float64{sportMLB: 1.05, sportWNBA: 1.5, sportNFL: 1.25, sportNCAAF: 0.75})},
	}
}
