package model

import (
	"database/sql"
	"errors"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrTooEarlyForStateAssociation is returned when a state arrives for an entity the
// current scene has not registered yet
var ErrTooEarlyForStateAssociation = errors.New("too early for state association")

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels lists every table in the recording schema, in migration order
var DatabaseModels = []interface{}{
	&Scene{},
	&Entity{},
	&EntityState{},
	&PathSummary{},
}

// Scene is one recorded run
type Scene struct {
	gorm.Model
	RunID     string         `json:"runId" gorm:"size:36;uniqueIndex"`
	Name      string         `json:"name" gorm:"size:128"`
	StartTime time.Time      `json:"startTime" gorm:"NOT NULL"`
	TickDelta float64        `json:"tickDelta"` // seconds per tick
	Origin    geom.Point     `json:"origin"`    // scene origin, EPSG:3857 meters
	Params    datatypes.JSON `json:"params"`
}

func (*Scene) TableName() string {
	return "scenes"
}

// Entity is an object registered in a scene. Static attributes only; per-tick
// values live in EntityState.
type Entity struct {
	SceneID   uint           `json:"sceneId" gorm:"primaryKey;autoIncrement:false"`
	ObjectID  int64          `json:"objectId" gorm:"primaryKey;autoIncrement:false"`
	Scene     Scene          `gorm:"foreignkey:SceneID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"deletedAt" gorm:"index"`

	Kind     string          `json:"kind" gorm:"size:16;index:idx_entity_kind"` // vehicle, pedestrian, cyclist, road_object
	Length   float64         `json:"length"`
	Width    float64         `json:"width"`
	MaxSpeed sql.NullFloat64 `json:"maxSpeed"` // NULL when unbounded
	IsAV     bool            `json:"isAV"`

	CanBlockSight  bool   `json:"canBlockSight"`
	CanBeCollided  bool   `json:"canBeCollided"`
	CheckCollision bool   `json:"checkCollision"`
	Color          string `json:"color" gorm:"size:9"` // #rrggbbaa

	TargetPosition geom.Point `json:"targetPosition"`
	TargetHeading  float64    `json:"targetHeading"`
	TargetSpeed    float64    `json:"targetSpeed"`
}

func (*Entity) TableName() string {
	return "entities"
}

// EntityState is an entity's kinematic state at one tick.
// References Entity by (SceneID, ObjectID) composite FK
type EntityState struct {
	ID       uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	SceneID  uint   `json:"sceneId" gorm:"index:idx_entitystate_scene_id"`
	ObjectID int64  `json:"objectId" gorm:"index:idx_entitystate_object_id"`
	Entity   Entity `gorm:"foreignkey:SceneID,ObjectID;references:SceneID,ObjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Tick     uint   `json:"tick" gorm:"index:idx_entitystate_tick"`

	Position      geom.Point `json:"position"`
	Heading       float64    `json:"heading"` // radians
	Speed         float64    `json:"speed"`
	ExpertControl bool       `json:"expertControl"`
}

func (*EntityState) TableName() string {
	return "entity_states"
}

// PathSummary stores intersecting-path results for one vehicle after a run
type PathSummary struct {
	ID                uint          `json:"id" gorm:"primarykey;autoIncrement;"`
	SceneID           uint          `json:"sceneId" gorm:"index:idx_pathsummary_scene_id"`
	Scene             Scene         `gorm:"foreignkey:SceneID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ObjectID          int64         `json:"objectId"`
	IntersectingPaths int           `json:"intersectingPaths"`
	MinStepDiff       sql.NullInt64 `json:"minStepDiff"` // NULL when paths never cross
}

func (*PathSummary) TableName() string {
	return "path_summaries"
}
