package jsonptr

// MergePatch applies an RFC 7396 JSON Merge Patch: patch is merged
// into target, recursively combining object keys, deleting keys whose
// patch value is nil (JSON null), and replacing non-object values
// wholesale. target and patch are the standard decoded-JSON shapes
// (map[string]any for objects); a nil target is treated as an empty
// object when patch is itself an object.
func MergePatch(target, patch any) any {
	patchObj, patchIsObj := patch.(map[string]any)
	if !patchIsObj {
		// RFC 7396 step 2: if Patch is not an object, the result is
		// simply Patch (the whole value is replaced).
		return patch
	}

	targetObj, targetIsObj := target.(map[string]any)
	if !targetIsObj {
		targetObj = map[string]any{}
	} else {
		// Don't mutate the caller's map in place.
		copied := make(map[string]any, len(targetObj))
		for k, v := range targetObj {
			copied[k] = v
		}
		targetObj = copied
	}

	for k, v := range patchObj {
		if v == nil {
			delete(targetObj, k)
			continue
		}
		targetObj[k] = MergePatch(targetObj[k], v)
	}
	return targetObj
}

// MergeFields merges every key of fields (a flat map, as a
// ReducerFunction invocation's non-"name" fields are) into target
// using MergePatch semantics, and returns the resulting object.
func MergeFields(target map[string]any, fields map[string]any) map[string]any {
	merged := MergePatch(target, map[string]any(fields))
	obj, _ := merged.(map[string]any)
	if obj == nil {
		obj = map[string]any{}
	}
	return obj
}
