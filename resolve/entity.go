package resolve

import (
	"fmt"

	"github.com/mbolis/quick-xform/aliases"
	"github.com/mbolis/quick-xform/survey"
)

// Entity attribute nodes, in instance order.
const (
	EntityDataset      = "dataset"
	EntityCreate       = "create"
	EntityUpdate       = "update"
	EntityBaseVersion  = "baseVersion"
	EntityTrunkVersion = "trunkVersion"
	EntityBranchID     = "branchId"
	EntityID           = "id"
	EntityLabel        = "label"
)

var versionNodes = []struct{ attr, node string }{
	{EntityBaseVersion, "__version"},
	{EntityTrunkVersion, "__trunkVersion"},
	{EntityBranchID, "__branchId"},
}

// entity resolves the calculations of the entity attributes and label. Each
// is evaluated against its own attribute node.
func (r *resolver) entity(e *survey.EntityDeclaration) {
	ctx := scopeOf(e)
	at := func(col string) site { return site{aliases.SheetEntities, col, 2} }
	calc := map[string]string{}

	if e.CreateIf != "" {
		calc[EntityCreate] = r.rewrite(e.CreateIf, ctx.child("@"+EntityCreate), at("create_if"), mode{})
	}
	if e.Updates() {
		if e.UpdateIf != "" {
			calc[EntityUpdate] = r.rewrite(e.UpdateIf, ctx.child("@"+EntityUpdate), at("update_if"), mode{})
		}
		before := r.fails
		calc[EntityID] = r.rewrite(e.EntityID, ctx.child("@"+EntityID), at("entity_id"), mode{})
		if r.fails == before {
			for _, v := range versionNodes {
				expr := fmt.Sprintf("instance('%s')/root/item[name=%s]/%s", e.Dataset, e.EntityID, v.node)
				calc[v.attr] = r.rewrite(expr, ctx.child("@"+v.attr), at("entity_id"), mode{})
			}
		}
	}
	if e.Label != "" {
		calc[EntityLabel] = r.rewrite(e.Label, ctx.child(EntityLabel), at("label"), mode{})
	}
	e.Resolved.Entity = calc
}
