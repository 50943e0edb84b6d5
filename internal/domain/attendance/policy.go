package attendance

import (
	"github.com/google/uuid"

	"github.com/odonto/clinic/internal/domain/dentist"
)

// transitions lists the lifecycle edges. DONE, CANCELED and NO_SHOW are
// terminal.
var transitions = map[Status][]Status{
	StatusCheckedIn:  {StatusInProgress, StatusCanceled, StatusNoShow},
	StatusInProgress: {StatusDone, StatusCanceled},
}

func (s Status) CanMoveTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// EffectiveDentist returns the dentist clinical data is recorded under: the
// attendance's assigned dentist if present, else the caller's own dentist
// profile. The caller is not checked against the assigned dentist.
func EffectiveDentist(assigned *uuid.UUID, caller *dentist.Dentist) (uuid.UUID, bool) {
	if assigned != nil {
		return *assigned, true
	}
	if caller != nil {
		return caller.ID, true
	}
	return uuid.Nil, false
}
