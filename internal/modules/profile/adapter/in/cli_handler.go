package in

import (
	"context"
	"encoding/json"

	profiledto "sacredsound/internal/modules/profile/dto"
	profilein "sacredsound/internal/modules/profile/port/in"
)

type CLIHandler struct {
	usecase profilein.Usecase
}

func NewCLIHandler(usecase profilein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Show(ctx context.Context) (profiledto.ProfileOutput, error) {
	return h.usecase.GetProfile(ctx)
}

// SetPreference accepts a JSON value; anything that is not valid JSON is
// stored as a string.
func (h CLIHandler) SetPreference(ctx context.Context, key, value string) (profiledto.ProfileOutput, error) {
	raw := json.RawMessage(value)
	if !json.Valid(raw) {
		encoded, err := json.Marshal(value)
		if err != nil {
			return profiledto.ProfileOutput{}, err
		}
		raw = encoded
	}
	return h.usecase.UpdatePreference(ctx, profiledto.UpdatePreferenceInput{Key: key, Value: raw})
}

func (h CLIHandler) AddFavorite(ctx context.Context, kind, item string) (profiledto.ProfileOutput, error) {
	return h.usecase.AddFavorite(ctx, profiledto.FavoriteInput{Kind: kind, Item: item})
}

func (h CLIHandler) RemoveFavorite(ctx context.Context, kind, item string) (profiledto.ProfileOutput, error) {
	return h.usecase.RemoveFavorite(ctx, profiledto.FavoriteInput{Kind: kind, Item: item})
}

func (h CLIHandler) Reset(ctx context.Context) (profiledto.ProfileOutput, error) {
	return h.usecase.Reset(ctx)
}

func (h CLIHandler) Login(ctx context.Context) (profiledto.ProfileOutput, error) {
	return h.usecase.Login(ctx)
}
