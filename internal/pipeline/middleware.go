package pipeline

import (
	"log/slog"

	"github.com/IshaanNene/volbyscrape/internal/types"
)

// The site's own figures are passed through as printed. These checks only
// report oddities; none of them rejects a record.

// IdentityCheck warns about records with no code or name, which happens
// when a results page is scraped on its own and the page does not say.
type IdentityCheck struct {
	logger *slog.Logger
}

func NewIdentityCheck(logger *slog.Logger) *IdentityCheck {
	return &IdentityCheck{logger: logger.With("component", "identity_check")}
}

func (m *IdentityCheck) Name() string { return "identity" }

func (m *IdentityCheck) Process(record *types.MunicipalityRecord) error {
	if record.Code == "" || record.Name == "" {
		m.logger.Warn("municipality identity incomplete",
			"url", record.SourceURL,
			"code", record.Code,
			"name", record.Name,
		)
	}
	return nil
}

// TurnoutCheck warns when registered >= envelopes >= valid does not hold.
type TurnoutCheck struct {
	logger *slog.Logger
}

func NewTurnoutCheck(logger *slog.Logger) *TurnoutCheck {
	return &TurnoutCheck{logger: logger.With("component", "turnout_check")}
}

func (m *TurnoutCheck) Name() string { return "turnout" }

func (m *TurnoutCheck) Process(record *types.MunicipalityRecord) error {
	if record.Envelopes > record.Registered || record.Valid > record.Envelopes {
		m.logger.Warn("inconsistent turnout figures",
			"code", record.Code,
			"registered", record.Registered,
			"envelopes", record.Envelopes,
			"valid", record.Valid,
		)
	}
	return nil
}

// VoteTotalCheck warns when party votes do not add up to the valid votes.
type VoteTotalCheck struct {
	logger *slog.Logger
}

func NewVoteTotalCheck(logger *slog.Logger) *VoteTotalCheck {
	return &VoteTotalCheck{logger: logger.With("component", "vote_total_check")}
}

func (m *VoteTotalCheck) Name() string { return "vote_total" }

func (m *VoteTotalCheck) Process(record *types.MunicipalityRecord) error {
	sum := 0
	for _, v := range record.Votes {
		sum += v
	}
	if sum != record.Valid {
		m.logger.Warn("party votes do not sum to valid votes",
			"code", record.Code,
			"valid", record.Valid,
			"sum", sum,
		)
	}
	return nil
}
