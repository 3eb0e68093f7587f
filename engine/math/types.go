package math

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

/**
 * @brief A 5-component vector, the homogeneous form of a point or
 * direction in 4D space. Index 4 holds the homogeneous coordinate.
 */
type Vec5 [5]float32

/** @brief A quaternion, used to represent rotational orientation. */
type Quaternion struct {
	X, Y, Z, W float32
}

/**
 * @brief a 4x4 matrix, used for the final 3D -> clip space projection.
 * Elements are stored column-major (Data[col*4+row]) so the array can be
 * uploaded as a GLSL mat4 without transposition.
 */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float32
}

/**
 * @brief a 5x5 matrix, the homogeneous transform of 4D space.
 * Elements are stored column-major (Data[col*5+row]).
 */
type Mat5 struct {
	Data [25]float32
}
