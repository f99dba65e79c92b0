// Package formstate turns declarative field and group definitions into live,
// observable form state.
//
// A Definition tree is resolved against layered options (global, per type,
// instance) and materialized as a tree of stores. Each store owns a
// dispatch.Store whose reducer applies normalized stateChanged and setDirty
// actions, while an effect pipeline translates user actions (update, focus,
// blur, reset) into those normalized actions and keeps validation current.
//
//	def := formstate.Group(formstate.Properties{
//		"name": formstate.Field("text"),
//		"age":  formstate.Field("int"),
//	})
//	store, err := formstate.CreateGroupStore(def, formstate.WithChildValuePropagation())
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//	name, _ := store.Field("name")
//	name.Update("Ada")
package formstate
