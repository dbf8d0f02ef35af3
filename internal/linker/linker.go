// Package linker finds the patients a doctor has seen. It asks the backend
// directly, then looks at appointments cached on this client, then derives
// patients from the doctor's appointment list, stopping at the first source
// that yields anyone.
package linker

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hackgods/healsync/internal/backend"
	"github.com/hackgods/healsync/internal/chain"
	"github.com/hackgods/healsync/internal/localstore"
)

const (
	StrategyDirect   = "doctor-patients"
	StrategyCache    = "local-cache"
	StrategyIndirect = "doctor-appointments"
)

type Patient struct {
	ID              string `json:"id"`
	PatientName     string `json:"patientName"`
	Email           string `json:"email,omitempty"`
	PatientAge      string `json:"patientAge,omitempty"`
	Gender          string `json:"gender,omitempty"`
	MobileNo        string `json:"mobileNo,omitempty"`
	AppointmentDate string `json:"appointmentDate,omitempty"`
	AppointmentTime string `json:"appointmentTime,omitempty"`
	Status          string `json:"status,omitempty"`
}

type Backend interface {
	DoctorPatients(ctx context.Context, doctorID string) ([]backend.Record, error)
	DoctorAppointments(ctx context.Context, doctorID string) ([]backend.Record, error)
}

type Cache interface {
	ReadCollection(key string) ([]localstore.Record, error)
}

// CacheCollections are read in this order and concatenated.
var CacheCollections = []string{localstore.KeyAppointments, localstore.KeyBookings}

type Linker struct {
	backend Backend
	cache   Cache
	logger  zerolog.Logger
}

// New returns a Linker. Either source may be nil, which skips the
// strategies that need it.
func New(b Backend, cache Cache, logger zerolog.Logger) *Linker {
	return &Linker{
		backend: b,
		cache:   cache,
		logger:  logger.With().Str("component", "linker").Logger(),
	}
}

// ResolvePatients returns at most one Patient per patient id, in order of
// first appearance, each holding the values of its last record. The result
// is never nil. The only error is ctx's.
func (l *Linker) ResolvePatients(ctx context.Context, doctorID string) ([]Patient, error) {
	doctorID = strings.TrimSpace(doctorID)
	if doctorID == "" {
		return []Patient{}, nil
	}
	log := l.logger.With().Str("doctor_id", doctorID).Logger()

	strategies := []chain.Strategy[[]Patient]{
		{Name: StrategyDirect, Run: func(ctx context.Context) ([]Patient, bool, error) {
			return l.direct(ctx, doctorID)
		}},
		{Name: StrategyCache, Run: func(context.Context) ([]Patient, bool, error) {
			return l.cached(doctorID, log)
		}},
		{Name: StrategyIndirect, Run: func(ctx context.Context) ([]Patient, bool, error) {
			return l.indirect(ctx, doctorID)
		}},
	}

	patients, source, err := chain.First(ctx, strategies, func(a chain.Attempt) {
		evt := log.Debug()
		if a.Err != nil && !backend.IsUnavailable(a.Err) {
			evt = log.Warn().Err(a.Err)
		} else if a.Err != nil {
			evt = evt.Err(a.Err)
		}
		evt.Str("strategy", a.Name).Msg("no patients from strategy")
	})
	if err != nil {
		return nil, err
	}
	if patients == nil {
		log.Debug().Msg("no patients found")
		return []Patient{}, nil
	}

	log.Debug().Str("strategy", source).Int("count", len(patients)).Msg("patients resolved")
	return patients, nil
}

func (l *Linker) direct(ctx context.Context, doctorID string) ([]Patient, bool, error) {
	if l.backend == nil {
		return nil, false, nil
	}
	recs, err := l.backend.DoctorPatients(ctx, doctorID)
	if err != nil {
		return nil, false, err
	}
	out := DerivePatients(recs, PatientAliases)
	return out, len(out) > 0, nil
}

func (l *Linker) cached(doctorID string, log zerolog.Logger) ([]Patient, bool, error) {
	if l.cache == nil {
		return nil, false, nil
	}

	var matching []map[string]any
	for _, key := range CacheCollections {
		recs, err := l.cache.ReadCollection(key)
		if err != nil {
			log.Warn().Err(err).Str("collection", key).Msg("skipping unreadable collection")
			continue
		}
		for _, r := range recs {
			if id, ok := firstValue(r, DoctorIDKeys); ok && id == doctorID {
				matching = append(matching, r)
			}
		}
	}

	out := DerivePatients(matching, AppointmentAliases)
	return out, len(out) > 0, nil
}

func (l *Linker) indirect(ctx context.Context, doctorID string) ([]Patient, bool, error) {
	if l.backend == nil {
		return nil, false, nil
	}
	recs, err := l.backend.DoctorAppointments(ctx, doctorID)
	if err != nil {
		return nil, false, err
	}
	out := DerivePatients(recs, AppointmentAliases)
	return out, len(out) > 0, nil
}

// DerivePatients builds one Patient per distinct patient, keyed by id, or
// by name when the record has no id. Records with neither are dropped.
// A later record replaces an earlier one but keeps its position.
func DerivePatients[R ~map[string]any](records []R, table AliasTable) []Patient {
	out := make([]Patient, 0, len(records))
	index := make(map[string]int, len(records))

	for _, rec := range records {
		fields := table.Resolve(map[string]any(rec))
		p := Patient{
			ID:              fields[FieldID],
			PatientName:     fields[FieldPatientName],
			Email:           fields[FieldEmail],
			PatientAge:      fields[FieldPatientAge],
			Gender:          fields[FieldGender],
			MobileNo:        fields[FieldMobileNo],
			AppointmentDate: fields[FieldAppointmentDate],
			AppointmentTime: fields[FieldAppointmentTime],
			Status:          fields[FieldStatus],
		}

		var key string
		switch {
		case p.ID != "":
			key = "id:" + p.ID
		case p.PatientName != "":
			key = "name:" + p.PatientName
		default:
			continue
		}

		if i, ok := index[key]; ok {
			out[i] = p
			continue
		}
		index[key] = len(out)
		out = append(out, p)
	}
	return out
}
