package live

import "context"

const (
	addrFireScene    = "/live/scene/fire"
	addrCreateScene  = "/live/song/create_scene"
	addrSceneSetName = "/live/scene/set/name"
)

// SceneCount returns the number of scenes.
func (s *Session) SceneCount(ctx context.Context) (int, error) {
	res, err := s.query(ctx, addrNumScenes)
	if err != nil {
		return 0, err
	}
	return intAt(addrNumScenes, res, 0)
}

// FireScene launches every clip in a scene.
func (s *Session) FireScene(scene int) error {
	if err := checkIndex("scene", scene); err != nil {
		return err
	}
	s.c.Send(addrFireScene, scene)
	return nil
}

// CreateScene inserts a scene at index; -1 appends.
func (s *Session) CreateScene(index int) error {
	if index < -1 {
		return checkIndex("scene", index)
	}
	s.c.Send(addrCreateScene, index)
	return nil
}

// SetSceneName renames a scene.
func (s *Session) SetSceneName(scene int, name string) error {
	if err := checkIndex("scene", scene); err != nil {
		return err
	}
	s.c.Send(addrSceneSetName, scene, name)
	return nil
}
