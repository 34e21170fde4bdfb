package scenario

import "ScanFlow/entity"

type Core interface {
	Scenarios() []entity.ScenarioInfo
}
