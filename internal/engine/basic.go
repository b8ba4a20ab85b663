package engine

// BasicScenario returns the fixed session bundle used for gathering: the
// "basic" map with a single monster, rendered without HUD clutter.
func BasicScenario() Config {
	return Config{
		ScenarioPath:  "./vizdoom/scenarios/basic.wad",
		Map:           "map01",
		Resolution:    Res640x480,
		Format:        FormatRGB24,
		WindowVisible: true,
		SoundEnabled:  true,
		Render: RenderOptions{
			HUD:           false,
			MinimalHUD:    false,
			Crosshair:     false,
			Weapon:        false,
			Decals:        false,
			Particles:     false,
			EffectSprites: false,
			Messages:      false,
			Corpses:       false,
			ScreenFlashes: true,
		},
		Buttons:          []Button{ButtonMoveLeft, ButtonMoveRight, ButtonAttack},
		Variables:        []GameVariable{VariableAmmo2},
		EpisodeStartTime: 14,
		EpisodeTimeout:   300,
		LivingReward:     -1,
		Skill:            5,
		Mode:             ModePlayer,
	}
}
